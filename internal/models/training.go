package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingSample is one labeled entry in the training corpus: the full
// analysis record it was derived from, its class, and bookkeeping metadata.
// The corpus is append-only; samples are never mutated once stored.
type TrainingSample struct {
	ID       string    `json:"id"`
	Domain   string    `json:"domain"`
	Class    int       `json:"class"`
	Notes    string    `json:"notes,omitempty"`
	AddedAt  time.Time `json:"added_at"`
	Analysis *Analysis `json:"analysis"`
}

// NewTrainingSample wraps an analysis with its label and metadata
func NewTrainingSample(analysis *Analysis, class int, notes string) *TrainingSample {
	return &TrainingSample{
		ID:       uuid.New().String(),
		Domain:   analysis.Domain,
		Class:    class,
		Notes:    notes,
		AddedAt:  time.Now().UTC(),
		Analysis: analysis,
	}
}
