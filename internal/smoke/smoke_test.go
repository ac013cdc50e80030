package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/assessly/internal/adapters/http/api"
	service "github.com/okian/assessly/internal/app"
	"github.com/okian/assessly/internal/domain/feedback"
	"github.com/okian/assessly/internal/smoke"
	"github.com/okian/assessly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type echoGenerator struct{}

func (echoGenerator) Name() string { return "echo" }

func (echoGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "Clear and well structured.", nil
}

func newTestServer(ctx context.Context) (*httptest.Server, func()) {
	svc := service.New(
		service.WithWorkerCount(4),
		service.WithQueueSize(64),
		service.WithFeedbackEvaluator(feedback.New(echoGenerator{})),
	)
	So(svc.Start(ctx), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		_ = svc.Stop(ctx)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running evaluation server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv, stop := newTestServer(ctx)
		defer stop()

		cfg := &smoke.Config{
			BaseURL: srv.URL,
			Rounds:  3,
			Workers: 4,
			Timeout: 5 * time.Second,
		}

		Convey("When replaying every sample case", func() {
			cases := append(smoke.DefaultCases(), smoke.GeneralCases()...)
			stats, err := smoke.Run(ctx, cfg, cases)

			Convey("Then they all pass", func() {
				So(err, ShouldBeNil)
				So(stats.Failures, ShouldBeEmpty)
				So(stats.Submitted, ShouldEqual, 3*len(cases))
				So(stats.Passed, ShouldEqual, stats.Submitted)
			})
		})

		Convey("When a case expects the wrong answer", func() {
			cases := []smoke.Case{{
				Name:     "wrong expectation",
				Request:  smoke.Request{Response: "2x + 3 = 2x + 3", AssignmentType: "math"},
				Status:   http.StatusOK,
				Contains: "incorrect",
			}}
			stats, err := smoke.Run(ctx, cfg, cases)

			Convey("Then the run reports the mismatch", func() {
				So(errors.Is(err, smoke.ErrMismatch), ShouldBeTrue)
				So(stats.Failed, ShouldEqual, 3)
				So(stats.Failures[0], ShouldContainSubstring, "wrong expectation")
			})
		})
	})
}

func TestRunUnhealthy(t *testing.T) {
	Convey("Given a server whose health check fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Then the run stops before submitting anything", func() {
			stats, err := smoke.Run(context.Background(), &smoke.Config{BaseURL: srv.URL, Timeout: time.Second}, smoke.DefaultCases())
			So(errors.Is(err, smoke.ErrUnhealthy), ShouldBeTrue)
			So(stats.Submitted, ShouldEqual, 0)
		})
	})
}
