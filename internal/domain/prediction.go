package domain

import "time"

// PredictionStatus enumerates prediction lifecycle states.
type PredictionStatus string

const (
	PredictionStatusPending    PredictionStatus = "pending"
	PredictionStatusProcessing PredictionStatus = "processing"
	PredictionStatusCompleted  PredictionStatus = "completed"
	PredictionStatusFailed     PredictionStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s PredictionStatus) Terminal() bool {
	return s == PredictionStatusCompleted || s == PredictionStatusFailed
}

// Prediction tracks one request for AI-generated output, correlated to an
// external inference run via ProviderJobID. Rows are never deleted; the table
// doubles as the audit trail.
type Prediction struct {
	ID            string
	UserID        string
	Model         string
	Status        PredictionStatus
	ProviderJobID string // assigned exactly once, during pending -> processing
	ResultURL     string
	ErrorMessage  string
	InputJSON     []byte
	CreditCost    int
	CallbackToken string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
