// Package simload generates a synthetic contractor pool and job stream,
// drives the HTTP API with recommendation requests, and verifies ordering
// determinism and rationale invariants on the responses.
package simload

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Contractors int           // Number of contractors to seed
	Jobs        int           // Number of jobs to create
	Workers     int           // Number of concurrent request workers
	MaxResults  int           // MaxResults per recommendation request
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // RNG seed; fixed seeds reproduce a run
	Verify      bool          // Re-issue a sample of requests to check determinism
}

// DefaultConfig returns the baseline load shape.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:9080",
		Contractors: 200,
		Jobs:        500,
		Workers:     16,
		MaxResults:  10,
		Timeout:     10 * time.Second,
		Seed:        1,
		Verify:      true,
	}
}

// Stats holds the outcome of a load run.
type Stats struct {
	ContractorsSeeded int
	JobsCreated       int
	RequestsIssued    int
	RequestsFailed    int
	EmptyResults      int
	VerifiedRequests  int
	OrderMismatches   int
	RationaleTooLong  int
	StartTime         time.Time
	Duration          time.Duration
}
