package events

import (
	"encoding/json"
	"time"
)

// ProjectChangedMessage signals that a location's project data settled into
// a new version. It carries only identifiers; the worker reloads the
// snapshot itself.
type ProjectChangedMessage struct {
	LocationID int       `json:"locationId"`
	Version    uint64    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewProjectChangedMessage(locationID int, version uint64) *ProjectChangedMessage {
	return &ProjectChangedMessage{
		LocationID: locationID,
		Version:    version,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProjectChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ProjectChangedMessageFromJSON(data []byte) (*ProjectChangedMessage, error) {
	var msg ProjectChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
