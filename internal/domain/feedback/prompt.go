package feedback

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed prompt.tmpl
var promptTemplate string

var prompt = template.Must(template.New("feedback").Parse(promptTemplate)) //nolint:gochecknoglobals // parsed once

// PromptData fills the instructional template.
type PromptData struct {
	AssignmentType   string
	ProficiencyLevel string
	Response         string
}

// RenderPrompt builds the single prompt sent to the generator.
func RenderPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := prompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPrompt, err)
	}
	return buf.String(), nil
}
