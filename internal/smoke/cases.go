package smoke

import "net/http"

// DefaultCases covers every evaluator route without calling the text
// generator.
func DefaultCases() []Case {
	return []Case{
		{
			Name:     "missing response",
			Request:  Request{AssignmentType: "math"},
			Status:   http.StatusBadRequest,
			Contains: "Student response is required",
		},
		{
			Name:     "correct equation",
			Request:  Request{Response: "2x + 3 = 2x + 3", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "Your equation is correct!",
		},
		{
			Name:     "unbalanced equation",
			Request:  Request{Response: "2x + 3 = 2x + 5", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "The difference between LHS and RHS is: -2",
		},
		{
			Name:     "derivative",
			Request:  Request{Response: "Find the derivative of 2x^2 + 3x", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "4*x + 3",
		},
		{
			Name:     "integral",
			Request:  Request{Response: "integral of 3x^2 + 1/x", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "x**3 + log(x)",
		},
		{
			Name:     "negative powers",
			Request:  Request{Response: "integral of x^-1 + x^-2", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "log(x) - 1/x",
		},
		{
			Name:     "worded simplify",
			Request:  Request{Response: "simplify 3 - x", AssignmentType: "math"},
			Status:   http.StatusOK,
			Contains: "-x + 3",
		},
		{
			Name:     "explicit operation",
			Request:  Request{Response: "x^2 + x^2", AssignmentType: "math", Operation: "simplify"},
			Status:   http.StatusOK,
			Contains: "2*x**2",
		},
		{
			Name:     "no expression",
			Request:  Request{Response: "hello world", AssignmentType: "math"},
			Status:   http.StatusBadRequest,
			Contains: "No valid mathematical expression found in the input.",
		},
		{
			Name:     "unsafe code",
			Request:  Request{Response: "import os", AssignmentType: "coding"},
			Status:   http.StatusBadRequest,
			Contains: "Unsafe code detected",
		},
		{
			Name:     "code runs",
			Request:  Request{Response: "total = len([1, 2, 3]) + 1", AssignmentType: "coding"},
			Status:   http.StatusOK,
			Contains: "Code executed successfully.",
		},
		{
			Name:     "code fails",
			Request:  Request{Response: "x = 1 // 0", AssignmentType: "coding"},
			Status:   http.StatusBadRequest,
			Contains: "Code execution failed:",
		},
	}
}

// GeneralCases reach the configured text generator.
func GeneralCases() []Case {
	return []Case{
		{
			Name:    "general feedback",
			Request: Request{Response: "The water cycle moves water between sea, air and land.", AssignmentType: "science"},
			Status:  http.StatusOK,
		},
		{
			Name:    "default assignment type",
			Request: Request{Response: "A short essay.", ProficiencyLevel: "beginner"},
			Status:  http.StatusOK,
		},
	}
}
