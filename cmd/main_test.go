package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/assessly/internal/adapters/llm/gemini"
	"github.com/okian/assessly/internal/adapters/llm/openai"
	"github.com/okian/assessly/internal/config"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	return cfg
}

func post(mux http.Handler, body string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/evaluate_assignment", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestNewGenerator(t *testing.T) {
	convey.Convey("Given the configured provider", t, func() {
		ctx := context.Background()
		cfg := testConfig()

		convey.Convey("When it is gemini without a key", func() {
			gen, closeGen, err := newGenerator(ctx, cfg)

			convey.Convey("Then a gemini generator is built", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(gen.Name(), convey.ShouldEqual, gemini.ProviderName)
				convey.So(closeGen, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When it is openai", func() {
			cfg.LLMProvider = config.ProviderOpenAI
			gen, closeGen, err := newGenerator(ctx, cfg)

			convey.Convey("Then an openai generator is built", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(gen.Name(), convey.ShouldEqual, openai.ProviderName)
				convey.So(closeGen, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When it is unknown", func() {
			cfg.LLMProvider = "parrot"
			_, _, err := newGenerator(ctx, cfg)

			convey.Convey("Then it fails as invalid config", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestApplicationWiring(t *testing.T) {
	convey.Convey("Given a fully wired application", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Solid argument."},"finish_reason":"stop"}]}`))
		}))
		defer llm.Close()

		cfg := testConfig()
		cfg.LLMProvider = config.ProviderOpenAI
		cfg.OpenAIAPIKey = "test-key"
		cfg.OpenAIBaseURL = llm.URL + "/v1"

		gen, closeGen, err := newGenerator(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer closeGen()

		svc := newService(cfg, gen, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := newMux(ctx, cfg, svc)

		convey.Convey("When checking an equation", func() {
			code, body := post(mux, `{"response":"2x + 3 = 2x + 5","assignment_type":"math"}`)

			convey.Convey("Then the difference is reported", func() {
				convey.So(code, convey.ShouldEqual, http.StatusOK)
				convey.So(body["feedback"], convey.ShouldContainSubstring, "The difference between LHS and RHS is: -2")
			})
		})

		convey.Convey("When running code", func() {
			code, body := post(mux, `{"response":"x = 2 * 21","assignment_type":"coding"}`)

			convey.Convey("Then the bindings are returned", func() {
				convey.So(code, convey.ShouldEqual, http.StatusOK)
				convey.So(body["output"], convey.ShouldResemble, map[string]any{"x": float64(42)})
			})
		})

		convey.Convey("When asking for general feedback", func() {
			code, body := post(mux, `{"response":"Essay text","assignment_type":"history"}`)

			convey.Convey("Then the model's answer is returned", func() {
				convey.So(code, convey.ShouldEqual, http.StatusOK)
				convey.So(body["feedback"], convey.ShouldEqual, "Solid argument.")
			})
		})

		convey.Convey("When the response is missing", func() {
			code, body := post(mux, `{"assignment_type":"math"}`)

			convey.Convey("Then it is a bad request", func() {
				convey.So(code, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(body["error"], convey.ShouldEqual, "Student response is required")
			})
		})

		convey.Convey("When requesting the API docs", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the OpenAPI document is served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/evaluate_assignment")
			})
		})
	})
}

func TestRunWithInvalidConfig(t *testing.T) {
	convey.Convey("Given an unknown provider in the environment", t, func() {
		_ = os.Setenv("ASSESSLY_LLM_PROVIDER", "parrot")
		defer func() { _ = os.Unsetenv("ASSESSLY_LLM_PROVIDER") }()

		convey.Convey("Then run fails before serving", func() {
			err := run(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given a config with metric naming and labels", t, func() {
		cfg := testConfig()
		cfg.MetricsNamespace = "grader"
		cfg.MetricsLabels = map[string]string{"env": "test"}
		registry := prometheus.NewRegistry()

		metrics.NewManager(append(metricsOptions(cfg), metrics.WithPrometheusRegistry(registry))...)

		convey.Convey("Then the collectors carry them", func() {
			mfs, err := registry.Gather()
			convey.So(err, convey.ShouldBeNil)
			found := false
			for _, mf := range mfs {
				if mf.GetName() != "grader_evaluator_queue_capacity" {
					continue
				}
				found = true
				label := mf.GetMetric()[0].GetLabel()[0]
				convey.So(label.GetName(), convey.ShouldEqual, "env")
				convey.So(label.GetValue(), convey.ShouldEqual, "test")
			}
			convey.So(found, convey.ShouldBeTrue)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
