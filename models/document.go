package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the parsing status of a document
type DocumentStatus string

const (
	DocStatusPending    DocumentStatus = "pending"
	DocStatusProcessing DocumentStatus = "processing"
	DocStatusCompleted  DocumentStatus = "completed"
	DocStatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s DocumentStatus) Terminal() bool {
	return s == DocStatusCompleted || s == DocStatusFailed
}

// CanTransition reports whether moving to the given status is a legal
// forward transition. Transitions are monotonic: pending -> processing
// -> completed|failed, and never out of a terminal state.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	switch s {
	case DocStatusPending:
		return to == DocStatusProcessing
	case DocStatusProcessing:
		return to == DocStatusCompleted || to == DocStatusFailed
	default:
		return false
	}
}

// Document represents an uploaded fund report document
type Document struct {
	ID           uuid.UUID      `json:"id"`
	FundID       uuid.UUID      `json:"fund_id"`
	Filename     string         `json:"filename"`
	StoragePath  string         `json:"storage_path"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
