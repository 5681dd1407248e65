// Package live tracks open client channels per identity and fans out
// realtime events to them. The registry is process-local and rebuilt empty
// on restart; delivery is best-effort, at-most-once.
package live

import "encoding/json"

// Event kinds pushed to clients.
const (
	EventNewMatch   = "new_match"
	EventNewMessage = "new_message"
)

// Event is one notification addressed to a single identity. The payload is
// opaque to this package; clients branch on Kind.
type Event struct {
	Target  string          `json:"target"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event for target, marshaling payload to JSON.
func NewEvent(target, kind string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Target: target, Kind: kind, Payload: raw}, nil
}
