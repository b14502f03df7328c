package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollIsClosed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, Poll{}.IsClosed(now), "no expiry keeps the poll open")
	assert.False(t, Poll{ExpiredAt: &future}.IsClosed(now))

	// Stamping expiry with the current instant closes the poll right away.
	assert.True(t, Poll{ExpiredAt: &now}.IsClosed(now))
	assert.True(t, Poll{ExpiredAt: &past}.IsClosed(now))
}
