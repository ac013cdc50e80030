package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/assessly/internal/adapters/mq/queue"
	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
)

// EvaluateHandler handles assignment evaluation requests.
type EvaluateHandler struct {
	eval         Evaluator
	maxBodyBytes int64
	logger       logger.Logger
}

// NewEvaluateHandler creates a new evaluation handler.
func NewEvaluateHandler(eval Evaluator, maxBodyBytes int64, l logger.Logger) *EvaluateHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &EvaluateHandler{eval: eval, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleEvaluate handles POST /evaluate_assignment requests.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate_assignment"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req model.Request
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	// An empty body or a JSON null decodes to the zero request, which then
	// fails validation like any request without a response.
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn(r.Context(), "request rejected", logger.Error(WrapKind(op, ErrBodyTooLarge, err)))
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		h.logger.Debug(r.Context(), "request rejected", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	res, err := h.eval.Evaluate(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail maps an evaluation error onto a status code and client message.
func (h *EvaluateHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()

	var de *model.Error
	switch {
	case errors.As(err, &de):
		status := statusForKind(de.Kind)
		if status >= http.StatusInternalServerError {
			h.logger.Error(ctx, "evaluation failed", logger.Error(WrapKind(op, ErrEvaluation, err)))
		} else {
			h.logger.Debug(ctx, "evaluation rejected",
				logger.String("kind", de.Kind.String()),
				logger.Error(err),
			)
		}
		writeError(w, status, de.Message)
	case errors.Is(err, queue.ErrFull):
		h.logger.Warn(ctx, "evaluation rejected", logger.Error(WrapKind(op, ErrBackpressure, err)))
		writeError(w, http.StatusTooManyRequests, msgQueueFull)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// The client is gone; the status is for the access log only.
		h.logger.Debug(ctx, "client went away", logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
	default:
		h.logger.Error(ctx, "evaluation failed", logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func statusForKind(k model.Kind) int {
	switch k {
	case model.KindValidation, model.KindParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
