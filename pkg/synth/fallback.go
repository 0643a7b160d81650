package synth

import (
	"encoding/json"
	"fmt"
	"time"
)

const fallbackTimeLayout = "2006-01-02T15:04:05.000000Z"

type fallbackPayload struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Server        string `json:"server"`
	CorrelationID string `json:"correlation_id"`
	Message       string `json:"message"`
}

// Fallback returns the static legacy-enterprise acknowledgement served
// whenever synthesis fails. It is always valid JSON.
func Fallback(now time.Time) string {
	now = now.UTC()
	b, err := json.Marshal(fallbackPayload{
		Status:        "ok",
		Timestamp:     now.Format(fallbackTimeLayout),
		Server:        "legacy-enterprise-api",
		CorrelationID: fmt.Sprintf("LEG-%d", now.Unix()),
		Message:       "Request processed successfully.",
	})
	if err != nil {
		return `{"status":"ok"}`
	}
	return string(b)
}
