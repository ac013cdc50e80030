package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/okian/assessly/internal/app"
	"github.com/okian/assessly/internal/domain/feedback"
	"github.com/okian/assessly/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// cannedGenerator answers every prompt with the same text.
type cannedGenerator struct {
	mu      sync.Mutex
	text    string
	prompts []string
}

func (g *cannedGenerator) Name() string { return "canned" }

func (g *cannedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.text, nil
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with the real math and code evaluators", t, func() {
		gen := &cannedGenerator{}
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(100),
			service.WithFeedbackEvaluator(feedback.New(gen)),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When checking a correct equation", func() {
			res, err := svc.Evaluate(ctx, model.Request{Response: "2x + 3 = 2x + 3", AssignmentType: "math"})

			Convey("Then it is reported correct", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldStartWith, "Your equation is correct!")
			})
		})

		Convey("When checking an unbalanced equation", func() {
			res, err := svc.Evaluate(ctx, model.Request{Response: "2x + 3 = 2x + 5", AssignmentType: "math"})

			Convey("Then the difference is reported", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldContainSubstring, "The difference between LHS and RHS is: -2")
			})
		})

		Convey("When asking for a derivative", func() {
			res, err := svc.Evaluate(ctx, model.Request{Response: "Find the derivative of 2x^2 + 3x", AssignmentType: "math"})

			Convey("Then the derivative is shown", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldStartWith, "The derivative of your expression is: 4*x + 3.")
			})
		})

		Convey("When the math text has no expression", func() {
			_, err := svc.Evaluate(ctx, model.Request{Response: "hello world", AssignmentType: "math"})

			Convey("Then it is a validation error", func() {
				So(err, ShouldEqual, model.ErrNoExpression)
			})
		})

		Convey("When submitting unsafe code", func() {
			_, err := svc.Evaluate(ctx, model.Request{Response: "import os", AssignmentType: "coding"})

			Convey("Then it is refused", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, "Unsafe code detected")
				So(model.KindOf(err), ShouldEqual, model.KindParse)
			})
		})

		Convey("When submitting a program", func() {
			res, err := svc.Evaluate(ctx, model.Request{Response: "a = 1 + 2\nb = [a, 'x']", AssignmentType: "coding"})

			Convey("Then its bindings are returned", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldEqual, "Code executed successfully.")
				So(res.Output, ShouldResemble, map[string]any{
					"a": int64(3),
					"b": []any{int64(3), "x"},
				})
			})
		})

		Convey("When the generator returns nothing for a general assignment", func() {
			res, err := svc.Evaluate(ctx, model.Request{Response: "My essay", AssignmentType: "history"})

			Convey("Then the placeholder is returned", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldEqual, feedback.Placeholder)
				So(gen.prompts, ShouldHaveLength, 1)
				So(gen.prompts[0], ShouldContainSubstring, "Assignment Type: history")
				So(gen.prompts[0], ShouldContainSubstring, "Student Proficiency Level: intermediate")
			})
		})

		Convey("When many requests run concurrently", func() {
			const n = 40
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					text := fmt.Sprintf("%dx + %d = %dx + %d", i, i, i, i)
					res, err := svc.Evaluate(ctx, model.Request{Response: text, AssignmentType: "math"})
					if err == nil && !strings.HasPrefix(res.Feedback, "Your equation is correct!") {
						err = fmt.Errorf("unexpected feedback for %q: %s", text, res.Feedback)
					}
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then every one of them succeeds", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				So(svc.GetStats()["processed"], ShouldEqual, int64(n))
			})
		})
	})
}
