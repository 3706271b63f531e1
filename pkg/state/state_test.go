package state

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/permission"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	conv := &Conversation{
		History: []message.Message{
			message.NewUserMessage(message.NewTextBlock("what is 2+2")),
			message.NewAssistantMessage(
				message.NewToolUseBlock("tu_1", "calculator", json.RawMessage(`{"expression":"2+2"}`)),
			),
			message.NewUserMessage(message.NewToolResultBlock("tu_1", "4", false)),
		},
		Model:            "claude-sonnet-4-20250514",
		SystemPrompt:     "be brief",
		MaxResultLength:  2000,
		AlwaysAllowTools: []string{"calculator"},
	}
	require.NoError(t, store.Save("math", conv))

	loaded, err := store.Load("math")
	require.NoError(t, err)

	assert.Equal(t, conv.Model, loaded.Model)
	assert.Equal(t, conv.SystemPrompt, loaded.SystemPrompt)
	assert.Equal(t, conv.AlwaysAllowTools, loaded.AlwaysAllowTools)
	require.Len(t, loaded.History, 3)
	assert.Equal(t, message.TypeToolUse, loaded.History[1].Content[0].Type)
	assert.Equal(t, "4", loaded.History[2].Content[0].Content)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListSorted(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.Save(name, &Conversation{Model: "m"}))
	}

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("gone", &Conversation{Model: "m"}))
	require.NoError(t, store.Delete("gone"))
	require.NoError(t, store.Delete("gone"))

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNameValidation(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"", "../escape", "a/b", "a\\b", "nul\x00"} {
		assert.Error(t, store.Save(name, &Conversation{}), "name %q", name)
	}
}

func TestPermissionBridge(t *testing.T) {
	mem := permission.NewMemory(nil)
	conv := &Conversation{
		AlwaysAllowTools: []string{"calculator", "read_file"},
		AlwaysDenyTools:  []string{"bash"},
	}
	conv.ApplyPermissions(mem)

	dec := mem.CheckPermission(context.Background(), permission.Request{ToolName: "calculator"})
	assert.True(t, dec.Allowed())
	dec = mem.CheckPermission(context.Background(), permission.Request{ToolName: "bash"})
	assert.False(t, dec.Allowed())

	captured := &Conversation{}
	captured.CapturePermissions(mem)
	assert.Equal(t, conv.AlwaysAllowTools, captured.AlwaysAllowTools)
	assert.Equal(t, conv.AlwaysDenyTools, captured.AlwaysDenyTools)
}

func TestDefaultName(t *testing.T) {
	name := DefaultName()
	assert.True(t, strings.HasPrefix(name, "conv-"))
	assert.NotEqual(t, name, DefaultName())
}
