package feedback_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/assessly/internal/domain/feedback"
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

// fakeGenerator records the prompt and replies with canned output.
type fakeGenerator struct {
	reply  string
	err    error
	delay  time.Duration
	prompt string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestRenderPrompt(t *testing.T) {
	Convey("Given prompt data", t, func() {
		out, err := feedback.RenderPrompt(feedback.PromptData{
			AssignmentType:   "literature",
			ProficiencyLevel: "beginner",
			Response:         "Hamlet is a <play> & more",
		})

		Convey("Then the template embeds every field verbatim", func() {
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "You are an AI teacher assistant evaluating student assignments.")
			So(out, ShouldContainSubstring, "Assignment Type: literature\n")
			So(out, ShouldContainSubstring, "Student Proficiency Level: beginner\n")
			So(out, ShouldContainSubstring, "Student Response:\nHamlet is a <play> & more\n")
			So(strings.TrimSpace(out), ShouldEndWith, "Provide constructive feedback.")
			So(out, ShouldContainSubstring, "Detect plagiarism")
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given a feedback evaluator", t, func() {
		ctx := context.Background()
		req := model.Request{Response: "The mitochondria is the powerhouse."}.WithDefaults()

		Convey("When the generator replies with text", func() {
			gen := &fakeGenerator{reply: "Good start."}
			res, err := feedback.New(gen).Evaluate(ctx, req)

			Convey("Then the text is the feedback", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldEqual, "Good start.")
				So(res.Output, ShouldBeNil)
				So(gen.prompt, ShouldContainSubstring, "Assignment Type: general")
				So(gen.prompt, ShouldContainSubstring, "Student Proficiency Level: intermediate")
			})
		})

		Convey("When the generator replies with nothing", func() {
			res, err := feedback.New(&fakeGenerator{reply: "  \n"}).Evaluate(ctx, req)

			Convey("Then the placeholder is returned", func() {
				So(err, ShouldBeNil)
				So(res.Feedback, ShouldEqual, "No feedback generated.")
			})
		})

		Convey("When the generator fails", func() {
			cause := errors.New("quota exceeded")
			_, err := feedback.New(&fakeGenerator{err: cause}).Evaluate(ctx, req)

			Convey("Then a service error is returned", func() {
				So(err.Error(), ShouldEqual, "AI response error: quota exceeded")
				So(model.KindOf(err), ShouldEqual, model.KindService)
				So(errors.Is(err, cause), ShouldBeTrue)
			})
		})

		Convey("When the generator is slower than the timeout", func() {
			gen := &fakeGenerator{reply: "late", delay: time.Second}
			_, err := feedback.New(gen, feedback.WithTimeout(20*time.Millisecond)).Evaluate(ctx, req)

			Convey("Then the call is abandoned", func() {
				So(model.KindOf(err), ShouldEqual, model.KindService)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When no generator is configured", func() {
			_, err := feedback.New(nil).Evaluate(ctx, req)
			So(errors.Is(err, feedback.ErrNoGenerator), ShouldBeTrue)
			So(model.KindOf(err), ShouldEqual, model.KindService)
		})
	})
}
