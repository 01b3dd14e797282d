package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChunkMetadata represents free-form chunk metadata stored as JSONB
type ChunkMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m ChunkMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ChunkMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(ChunkMetadata)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(ChunkMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(ChunkMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Chunk represents an overlap-preserving segment of extracted document
// text together with its embedding vector. The vector dimensionality
// must equal the configured embedding model's output dimension.
type Chunk struct {
	ID         uuid.UUID     `json:"id"`
	DocumentID uuid.UUID     `json:"document_id"`
	FundID     uuid.UUID     `json:"fund_id"`
	PageNumber int           `json:"page_number"`
	ChunkIndex int           `json:"chunk_index"`
	Content    string        `json:"content"`
	Embedding  []float64     `json:"-"`
	Metadata   ChunkMetadata `json:"metadata,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`

	// Distance is the cosine distance to the query vector, populated
	// only by similarity search.
	Distance float64 `json:"distance,omitempty"`
}
