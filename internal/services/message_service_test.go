package services_test

import (
	"regexp"
	"testing"

	"github.com/pvdmeer/babbel/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	svc := services.NewMessageService(newTestDB(t))

	// Three sends within the same wall-clock second; row id decides order.
	require.NoError(t, svc.Append("alice", "one"))
	require.NoError(t, svc.Append("bob", "two"))
	require.NoError(t, svc.Append("alice", "three"))

	lines, err := svc.History()
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "one", lines[0].Message)
	assert.Equal(t, "two", lines[1].Message)
	assert.Equal(t, "three", lines[2].Message)
	assert.Equal(t, "alice", lines[0].Username)
	assert.Equal(t, "bob", lines[1].Username)

	timeOfDay := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	for _, line := range lines {
		assert.Regexp(t, timeOfDay, line.Time)
	}
}

func TestHistoryEmpty(t *testing.T) {
	svc := services.NewMessageService(newTestDB(t))

	lines, err := svc.History()
	require.NoError(t, err)
	assert.Empty(t, lines)
}
