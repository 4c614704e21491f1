package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// Event represents a domain event raised by a statement transition
type Event struct {
	ID          string                 `json:"id"`
	Type        Type                   `json:"type"`
	StatementID string                 `json:"statement_id"`
	ProjectID   string                 `json:"project_id"`
	From        statement.Status       `json:"from"`
	To          statement.Status       `json:"to"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, st *statement.PaymentStatement, from, to statement.Status) *Event {
	return &Event{
		ID:          generateID(),
		Type:        eventType,
		StatementID: st.ID,
		ProjectID:   st.ProjectID,
		From:        from,
		To:          to,
		Payload:     map[string]interface{}{"period": st.Period.String()},
		Timestamp:   time.Now(),
	}
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	copied := *e
	copied.Payload = payload
	return &copied
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
