package models

import (
	"time"

	"github.com/google/uuid"
)

// Fund represents a private equity fund entity
type Fund struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Sponsor     *string   `json:"sponsor,omitempty"`
	VintageYear *int      `json:"vintage_year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
