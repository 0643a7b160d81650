package api

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chameleon/pkg/llm"
	"github.com/papercomputeco/chameleon/pkg/storage"
)

// LogTimeLayout is the timestamp format of the log feed.
const LogTimeLayout = "2006-01-02 15:04:05"

//go:embed dashboard.html
var dashboardHTML []byte

// LogEntry is one attack log as shown on the dashboard.
type LogEntry struct {
	ID             string  `json:"id"`
	Timestamp      string  `json:"timestamp"`
	IPAddress      string  `json:"ip_address"`
	RequestMethod  string  `json:"request_method"`
	Endpoint       string  `json:"endpoint"`
	PayloadData    *string `json:"payload_data"`
	AIResponseSent string  `json:"ai_response_sent"`
	UserAgent      string  `json:"user_agent"`
	Outcome        string  `json:"outcome,omitempty"`
}

// StatsResponse summarizes the whole attack log.
type StatsResponse struct {
	TotalAttacks         int    `json:"total_attacks"`
	MostAttackedEndpoint string `json:"most_attacked_endpoint"`
	MostAttackedCount    int    `json:"most_attacked_count"`
}

// LogsResponse is the body of GET /api/logs.
type LogsResponse struct {
	Logs  []LogEntry    `json:"logs"`
	Stats StatsResponse `json:"stats"`
}

// NewLogEntry converts a stored log for display.
func NewLogEntry(log *storage.AttackLog) LogEntry {
	return LogEntry{
		ID:             log.ID,
		Timestamp:      log.Timestamp.UTC().Format(LogTimeLayout),
		IPAddress:      log.IPAddress,
		RequestMethod:  log.RequestMethod,
		Endpoint:       log.Endpoint,
		PayloadData:    log.PayloadData,
		AIResponseSent: log.AIResponseSent,
		UserAgent:      log.UserAgent,
		Outcome:        log.Outcome,
	}
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleDashboard serves the static monitor page.
func (s *Server) handleDashboard(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(dashboardHTML)
}

// handleLogs returns the most recent logs, newest first, and overall stats.
func (s *Server) handleLogs(c *fiber.Ctx) error {
	ctx := c.Context()

	limit := c.QueryInt("limit", s.config.LogLimit)
	if limit <= 0 || limit > maxLogLimit {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "limit must be between 1 and 500"})
	}

	logs, err := s.driver.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list attack logs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list logs"})
	}

	stats, err := s.driver.Stats(ctx, 1)
	if err != nil {
		s.logger.Error("failed to compute attack stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to compute stats"})
	}

	entries := make([]LogEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, NewLogEntry(log))
	}

	endpoint, count := stats.MostAttacked()

	return c.JSON(LogsResponse{
		Logs: entries,
		Stats: StatsResponse{
			TotalAttacks:         stats.TotalAttacks,
			MostAttackedEndpoint: endpoint,
			MostAttackedCount:    count,
		},
	})
}
