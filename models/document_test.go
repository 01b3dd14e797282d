package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentStatusTransitions(t *testing.T) {
	tests := []struct {
		from DocumentStatus
		to   DocumentStatus
		want bool
	}{
		{DocStatusPending, DocStatusProcessing, true},
		{DocStatusProcessing, DocStatusCompleted, true},
		{DocStatusProcessing, DocStatusFailed, true},

		{DocStatusPending, DocStatusCompleted, false},
		{DocStatusPending, DocStatusFailed, false},
		{DocStatusProcessing, DocStatusPending, false},
		{DocStatusCompleted, DocStatusProcessing, false},
		{DocStatusCompleted, DocStatusPending, false},
		{DocStatusFailed, DocStatusProcessing, false},
		{DocStatusFailed, DocStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDocumentStatusTerminal(t *testing.T) {
	assert.False(t, DocStatusPending.Terminal())
	assert.False(t, DocStatusProcessing.Terminal())
	assert.True(t, DocStatusCompleted.Terminal())
	assert.True(t, DocStatusFailed.Terminal())
}
