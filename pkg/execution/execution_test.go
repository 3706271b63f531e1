package execution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Lifecycle(t *testing.T) {
	rec := NewRecord("toolu_01", "calculator", json.RawMessage(`{"expression":"2+2"}`))
	assert.Equal(t, StatePending, rec.State)
	assert.False(t, rec.Finished())
	assert.Nil(t, rec.CompletedAt)

	rec.Start()
	assert.Equal(t, StateExecuting, rec.State)

	rec.Complete("4")
	assert.Equal(t, StateCompleted, rec.State)
	assert.Equal(t, "4", rec.Result)
	assert.True(t, rec.Finished())
	require.NotNil(t, rec.CompletedAt)
	require.NotNil(t, rec.DurationMS)
	assert.GreaterOrEqual(t, *rec.DurationMS, int64(0))
}

func TestRecord_Fail(t *testing.T) {
	rec := NewRecord("toolu_02", "bash", nil)
	rec.Start()
	rec.Fail("command not found")

	assert.Equal(t, StateFailed, rec.State)
	assert.Equal(t, "command not found", rec.Err())
	assert.True(t, rec.Finished())
}

func TestRecord_DenyFromPending(t *testing.T) {
	// Denial skips the executing state entirely.
	rec := NewRecord("toolu_03", "bash", nil)
	rec.Deny("user denied permission")

	assert.Equal(t, StateDenied, rec.State)
	assert.Equal(t, "user denied permission", rec.Err())
	require.NotNil(t, rec.DurationMS)
}

func TestRecord_TerminalStateIsImmutable(t *testing.T) {
	rec := NewRecord("toolu_04", "calculator", nil)
	rec.Start()
	rec.Complete("done")

	completedAt := *rec.CompletedAt
	duration := *rec.DurationMS

	rec.Fail("too late")
	rec.Deny("too late")
	rec.Complete("other")
	rec.Start()

	assert.Equal(t, StateCompleted, rec.State)
	assert.Equal(t, "done", rec.Result)
	assert.Equal(t, completedAt, *rec.CompletedAt)
	assert.Equal(t, duration, *rec.DurationMS)
	assert.Empty(t, rec.Err())
}
