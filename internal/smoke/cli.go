package smoke

import (
	"os"
)

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Assessly Smoke Test
===================

Replays sample assignments against a running evaluation service and checks
each status code and message.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5000")
  -rounds int
        Times every case is submitted (default 5)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -general
        Also submit general assignments (calls the text generator)
  -log-format string
        text or json (default "text")
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  # Check a local server
  go run ./cmd/smoke

  # Hammer it harder, including the generator path
  go run ./cmd/smoke -rounds 50 -workers 32 -general
`)
}
