// Package model contains domain models passed between layers.
package model

// Defaults applied to optional request fields.
const (
	DefaultAssignmentType   = "general"
	DefaultProficiencyLevel = "intermediate"
)

// Route names the evaluator a request is dispatched to.
type Route string

// Known routes. Any assignment type other than math and coding is general.
const (
	RouteMath    Route = "math"
	RouteCoding  Route = "coding"
	RouteGeneral Route = "general"
)

// Request is one submitted assignment.
// Fields mirror the OpenAPI schema for /evaluate_assignment.
type Request struct {
	Response         string `json:"response"`
	AssignmentType   string `json:"assignment_type"`
	ProficiencyLevel string `json:"proficiency_level"`
	// Operation optionally names the math operation (derivative, integral,
	// simplify) instead of inferring it from keywords.
	Operation string `json:"operation,omitempty"`
}

// WithDefaults returns a copy with empty optional fields filled in.
func (r Request) WithDefaults() Request {
	if r.AssignmentType == "" {
		r.AssignmentType = DefaultAssignmentType
	}
	if r.ProficiencyLevel == "" {
		r.ProficiencyLevel = DefaultProficiencyLevel
	}
	return r
}

// Validate reports a validation error when the response is missing.
func (r Request) Validate() error {
	if r.Response == "" {
		return ErrResponseRequired
	}
	return nil
}

// Route dispatches on an exact match of the assignment type.
func (r Request) Route() Route {
	switch r.AssignmentType {
	case string(RouteMath):
		return RouteMath
	case string(RouteCoding):
		return RouteCoding
	default:
		return RouteGeneral
	}
}
