// Package storage defines the attack log model and the driver interface
// implemented by the in-memory, SQLite and PostgreSQL backends.
package storage

import (
	"context"
	"time"
)

// NoEndpoint is reported as the most attacked endpoint of an empty store.
const NoEndpoint = "N/A"

// AttackLog is one recorded trap request and the response it was served.
type AttackLog struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	IPAddress     string    `json:"ip_address"`
	RequestMethod string    `json:"request_method"`
	Endpoint      string    `json:"endpoint"`

	// PayloadData is nil when the request had no body.
	PayloadData *string `json:"payload_data"`

	AIResponseSent string `json:"ai_response_sent"`
	UserAgent      string `json:"user_agent"`

	// Outcome records how the response was produced, e.g. "success" or
	// "provider_error".
	Outcome string `json:"outcome,omitempty"`
}

// EndpointCount is the number of recorded requests against one endpoint.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// Stats summarizes the attack log.
type Stats struct {
	TotalAttacks int `json:"total_attacks"`

	// TopEndpoints is ordered by count descending, then endpoint ascending.
	TopEndpoints []EndpointCount `json:"top_endpoints"`
}

// MostAttacked returns the endpoint with the most requests, or
// (NoEndpoint, 0) when nothing has been recorded.
func (s *Stats) MostAttacked() (string, int) {
	if s == nil || len(s.TopEndpoints) == 0 {
		return NoEndpoint, 0
	}
	return s.TopEndpoints[0].Endpoint, s.TopEndpoints[0].Count
}

// Driver persists and queries attack logs.
type Driver interface {
	// Put stores a log. The log must carry a non-empty ID.
	Put(ctx context.Context, log *AttackLog) error

	// Get retrieves a log by ID, returning NotFoundError when absent.
	Get(ctx context.Context, id string) (*AttackLog, error)

	// Recent returns up to limit logs, newest first.
	Recent(ctx context.Context, limit int) ([]*AttackLog, error)

	// Stats returns the total count and the topN most requested endpoints.
	Stats(ctx context.Context, topN int) (*Stats, error)

	// Close releases any resources.
	Close() error
}
