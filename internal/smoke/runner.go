// Package smoke replays sample assignments against a running evaluation
// service and checks every status code and message.
package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/assessly/pkg/logger"
)

// Runner configuration constants.
const (
	workerChannelMultiplier = 2
	percentageMultiplier    = 100
)

// Run checks service health, then submits every case cfg.Rounds times with
// cfg.Workers concurrent workers and verifies the answers.
func Run(ctx context.Context, cfg *Config, cases []Case) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("cases", len(cases)),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return stats, err
	}

	// Step 2: Submit cases concurrently
	submitCases(ctx, client, cfg, cases, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d failed", ErrMismatch, stats.Failed, stats.Submitted)
	}
	logger.Get().Info(ctx, "smoke run passed")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitCases fans the cases out to a worker pool and records each verdict.
func submitCases(ctx context.Context, client *HTTPClient, cfg *Config, cases []Case, stats *Stats) {
	url := cfg.BaseURL + "/evaluate_assignment"
	rounds := cfg.Rounds
	if rounds < 1 {
		rounds = 1
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		submitted atomic.Int64
		passed    atomic.Int64
		mu        sync.Mutex
		failures  []string
	)

	caseChan := make(chan Case, workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range caseChan {
				submitted.Add(1)
				if err := submitCase(ctx, client, url, c, cfg.Verbose); err != nil {
					mu.Lock()
					failures = append(failures, err.Error())
					mu.Unlock()
					continue
				}
				passed.Add(1)
			}
		}()
	}

	go func() {
		defer close(caseChan)
		for r := 0; r < rounds; r++ {
			for _, c := range cases {
				select {
				case <-ctx.Done():
					return
				case caseChan <- c:
				}
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Passed = int(passed.Load())
	stats.Failed = stats.Submitted - stats.Passed
	stats.Failures = failures
}

// submitCase sends one request and compares the answer with the case.
func submitCase(ctx context.Context, client *HTTPClient, url string, c Case, verbose bool) error {
	resp, id, err := client.Post(ctx, url, c.Request)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("%s: reading body: %w", c.Name, err)
	}

	if verbose {
		logger.Get().Info(ctx, "case answered",
			logger.String("case", c.Name),
			logger.String("request_id", id),
			logger.Int("status", resp.StatusCode),
		)
	}

	if resp.StatusCode != c.Status {
		return fmt.Errorf("%s: status %d, want %d: %s", c.Name, resp.StatusCode, c.Status, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("%s: decoding body: %w", c.Name, err)
	}
	text := out.Feedback
	if resp.StatusCode != http.StatusOK {
		text = out.Error
	}
	if c.Contains != "" && !strings.Contains(text, c.Contains) {
		return fmt.Errorf("%s: %q does not contain %q", c.Name, text, c.Contains)
	}
	if resp.StatusCode == http.StatusOK && out.Feedback == "" {
		return fmt.Errorf("%s: empty feedback", c.Name)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Passed) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	for _, f := range stats.Failures {
		logger.Get().Error(ctx, "case failed", logger.String("detail", f))
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
