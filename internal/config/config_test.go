package config_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/okian/assessly/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.LLMProvider, convey.ShouldEqual, config.ProviderGemini)
			convey.So(cfg.TextModel, convey.ShouldEqual, "gemini-2.0-flash-exp")
			convey.So(cfg.GoogleAPIKey, convey.ShouldBeEmpty)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "assessly")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from milliseconds", func() {
			convey.So(cfg.FeedbackTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.CodeTimeout(), convey.ShouldEqual, 2*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the provider is unknown", func() {
			cfg.LLMProvider = "claude"
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When the worker count is zero", func() {
			cfg.WorkerCount = 0
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When the code step budget is zero", func() {
			cfg.CodeMaxSteps = 0
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When a timeout is negative", func() {
			cfg.FeedbackTimeoutMS = -1
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})
	})
}
