package models

// UserEventRegistered is the type of the event emitted after sign-up.
const UserEventRegistered = "user_registered"

// UserEvent represents a user lifecycle event published to Kafka
type UserEvent struct {
	EventID    string `json:"event_id"`    // Unique event ID
	Type       string `json:"type"`        // Event type, e.g. user_registered
	UserID     int64  `json:"user_id"`     // Subject user
	Email      string `json:"email"`       // Subject email
	OccurredAt int64  `json:"occurred_at"` // Unix timestamp
}
