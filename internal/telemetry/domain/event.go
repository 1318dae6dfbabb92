package domain

import (
	"encoding/json"
	"time"
)

// Event is a telemetry event (org-scoped, optional user/session). Events are
// serialized as JSON onto the Kafka topic and mirrored to OTel logs.
type Event struct {
	OrgID     string          `json:"org_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
