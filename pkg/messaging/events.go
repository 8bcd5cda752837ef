package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventChallanExtracted = "challan.extracted"
)

// ExchangeLuminaryEvents is the default topic exchange
const ExchangeLuminaryEvents = "luminary.events"

// Event is the envelope every message is published in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ChallanExtractedEvent is published after a challan upload was parsed
type ChallanExtractedEvent struct {
	OriginalName string  `json:"original_name"`
	Processor    string  `json:"processor"`
	Date         string  `json:"date"`
	VehicleNo    string  `json:"vehicle_no"`
	Description  string  `json:"description"`
	Qty          float64 `json:"qty"`
	Unit         string  `json:"unit"`
	DurationMs   int64   `json:"duration_ms"`
}
