package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // How many times every case is submitted
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	General bool          // Include cases that call the text generator
	Verbose bool          // Log every request
}

// Request mirrors the POST /evaluate_assignment body.
type Request struct {
	Response         string `json:"response,omitempty"`
	AssignmentType   string `json:"assignment_type,omitempty"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
	Operation        string `json:"operation,omitempty"`
}

// Response is either a result or an error body.
type Response struct {
	Feedback string         `json:"feedback"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error"`
}

// Case is one request with its expected status and message fragment.
type Case struct {
	Name    string
	Request Request
	Status  int
	// Contains must appear in the feedback on success or in the error
	// message otherwise. Empty skips the check.
	Contains string
}

// Stats holds run statistics.
type Stats struct {
	Submitted int
	Passed    int
	Failed    int
	Failures  []string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
