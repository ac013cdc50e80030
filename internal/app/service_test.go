package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/assessly/internal/adapters/mq/queue"
	service "github.com/okian/assessly/internal/app"
	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeMath records what it was asked and optionally blocks until released.
type fakeMath struct {
	started chan struct{}
	release chan struct{}
}

func (f *fakeMath) Evaluate(ctx context.Context, text, operation string) (model.Result, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return model.Result{}, ctx.Err()
		}
	}
	return model.Result{Feedback: "math:" + text + ":" + operation}, nil
}

type fakeCode struct{}

func (fakeCode) Evaluate(_ context.Context, code string) (model.Result, error) {
	if code == "boom" {
		panic("interpreter crashed")
	}
	return model.Result{Feedback: "code:" + code}, nil
}

type fakeFeedback struct{}

func (fakeFeedback) Evaluate(_ context.Context, req model.Request) (model.Result, error) {
	if req.Response == "fail" {
		return model.Result{}, model.Servicef(nil, "AI response error: down")
	}
	return model.Result{Feedback: "general:" + req.AssignmentType + ":" + req.ProficiencyLevel}, nil
}

func newStartedService(opts ...service.Option) (*service.Service, context.Context, func()) {
	opts = append([]service.Option{
		service.WithMathEvaluator(&fakeMath{}),
		service.WithCodeEvaluator(fakeCode{}),
		service.WithFeedbackEvaluator(fakeFeedback{}),
	}, opts...)
	svc := service.New(opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, ctx, func() {
		_ = svc.Stop(ctx)
		cancel()
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldBeGreaterThan, 0)
			So(stats["queueSize"], ShouldEqual, 1024)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50),
			service.WithLogger(logger.Get()),
			service.WithMathEvaluator(nil),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And when stopping it", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
				})

				Convey("Then evaluations are refused", func() {
					_, err := svc.Evaluate(ctx, model.Request{Response: "x"})
					So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				})
			})
		})

		Convey("When evaluating before start", func() {
			_, err := svc.Evaluate(ctx, model.Request{Response: "x"})

			Convey("Then it fails with ErrNotStarted", func() {
				So(err, ShouldEqual, service.ErrNotStarted)
			})
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a started service with fake evaluators", t, func() {
		svc, ctx, stop := newStartedService(service.WithWorkerCount(2))
		defer stop()

		Convey("When the response is missing", func() {
			_, err := svc.Evaluate(ctx, model.Request{AssignmentType: "math"})

			Convey("Then it is a validation error", func() {
				So(errors.Is(err, model.ErrResponseRequired), ShouldBeTrue)
				So(model.KindOf(err), ShouldEqual, model.KindValidation)
			})
		})

		Convey("When routing by assignment type", func() {
			math, err := svc.Evaluate(ctx, model.Request{Response: "2x", AssignmentType: "math", Operation: "simplify"})
			So(err, ShouldBeNil)
			code, err := svc.Evaluate(ctx, model.Request{Response: "a = 1", AssignmentType: "coding"})
			So(err, ShouldBeNil)
			general, err := svc.Evaluate(ctx, model.Request{Response: "essay"})
			So(err, ShouldBeNil)
			other, err := svc.Evaluate(ctx, model.Request{Response: "essay", AssignmentType: "Math", ProficiencyLevel: "beginner"})
			So(err, ShouldBeNil)

			Convey("Then each evaluator receives its request", func() {
				So(math.Feedback, ShouldEqual, "math:2x:simplify")
				So(code.Feedback, ShouldEqual, "code:a = 1")
				So(general.Feedback, ShouldEqual, "general:general:intermediate")
				So(other.Feedback, ShouldEqual, "general:Math:beginner")
			})

			Convey("Then statistics are counted per route", func() {
				stats := svc.GetStats()
				So(stats["evaluations"], ShouldResemble, map[string]int64{
					"total":    4,
					"ok":       4,
					"failed":   0,
					"rejected": 0,
				})
				So(stats["routes"], ShouldResemble, map[string]int64{
					"math":    1,
					"coding":  1,
					"general": 2,
				})
				So(stats["processed"], ShouldEqual, int64(4))
			})
		})

		Convey("When an evaluator fails", func() {
			_, err := svc.Evaluate(ctx, model.Request{Response: "fail"})

			Convey("Then the domain error is returned as is", func() {
				So(model.KindOf(err), ShouldEqual, model.KindService)
				So(err.Error(), ShouldEqual, "AI response error: down")
				So(svc.GetStats()["evaluations"].(map[string]int64)["failed"], ShouldEqual, int64(1))
			})
		})

		Convey("When an evaluator panics", func() {
			_, err := svc.Evaluate(ctx, model.Request{Response: "boom", AssignmentType: "coding"})

			Convey("Then the panic surfaces as an unclassified error", func() {
				So(err, ShouldNotBeNil)
				So(model.KindOf(err), ShouldEqual, model.Kind(0))
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service with one worker and a queue of one", t, func() {
		fm := &fakeMath{
			started: make(chan struct{}, 2),
			release: make(chan struct{}),
		}
		svc, ctx, stop := newStartedService(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithMathEvaluator(fm),
		)
		defer stop()
		defer func() {
			select {
			case <-fm.release:
			default:
				close(fm.release)
			}
		}()

		req := model.Request{Response: "x", AssignmentType: "math"}
		results := make(chan error, 2)
		evaluate := func() {
			_, err := svc.Evaluate(ctx, req)
			results <- err
		}

		// Occupy the worker, then fill the queue.
		go evaluate()
		<-fm.started
		go evaluate()
		deadline := time.Now().Add(5 * time.Second)
		for svc.GetStats()["queueLength"] != 1 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		Convey("When another request arrives", func() {
			_, err := svc.Evaluate(ctx, req)

			Convey("Then it is rejected with backpressure", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(svc.GetStats()["evaluations"].(map[string]int64)["rejected"], ShouldEqual, int64(1))
			})

			Convey("Then the accepted requests still complete", func() {
				close(fm.release)
				So(<-results, ShouldBeNil)
				So(<-results, ShouldBeNil)
			})
		})
	})
}

func TestService_CallerTimeout(t *testing.T) {
	Convey("Given a service whose evaluator blocks", t, func() {
		fm := &fakeMath{release: make(chan struct{})}
		svc, ctx, stop := newStartedService(service.WithMathEvaluator(fm))
		defer stop()

		Convey("When the caller's context expires first", func() {
			callCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := svc.Evaluate(callCtx, model.Request{Response: "x", AssignmentType: "math"})

			Convey("Then the deadline error is returned", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestService_StopDrainsAfterStartContextEnds(t *testing.T) {
	Convey("Given a service started with a context that is later cancelled", t, func() {
		fm := &fakeMath{
			started: make(chan struct{}, 2),
			release: make(chan struct{}),
		}
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(4),
			service.WithMathEvaluator(fm),
			service.WithCodeEvaluator(fakeCode{}),
			service.WithFeedbackEvaluator(fakeFeedback{}),
		)
		rootCtx, cancelRoot := context.WithCancel(context.Background())
		defer cancelRoot()
		So(svc.Start(rootCtx), ShouldBeNil)

		callCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req := model.Request{Response: "x", AssignmentType: "math"}
		results := make(chan error, 2)
		evaluate := func() {
			_, err := svc.Evaluate(callCtx, req)
			results <- err
		}

		// One job running, one waiting in the queue.
		go evaluate()
		<-fm.started
		go evaluate()
		deadline := time.Now().Add(5 * time.Second)
		for svc.GetStats()["queueLength"] != 1 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		Convey("When the start context is cancelled and the service is stopped", func() {
			cancelRoot()
			time.Sleep(10 * time.Millisecond)

			stopErr := make(chan error, 1)
			go func() { stopErr <- svc.Stop(callCtx) }()
			close(fm.release)

			Convey("Then both the running and the queued job are answered", func() {
				for i := 0; i < 2; i++ {
					select {
					case err := <-results:
						So(err, ShouldBeNil)
					case <-time.After(5 * time.Second):
						So(errors.New("job was never answered"), ShouldBeNil)
					}
				}
				So(<-stopErr, ShouldBeNil)
			})
		})
	})
}
