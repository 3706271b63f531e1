package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimas/aruna/internal/config"
	"github.com/dimas/aruna/pkg/chat"
	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/permission"
	"github.com/dimas/aruna/pkg/provider"
	"github.com/dimas/aruna/pkg/state"
	"github.com/dimas/aruna/pkg/tool"
)

type staticTransport struct {
	text string
}

func (s *staticTransport) Name() string { return "static" }

func (s *staticTransport) Send(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return &provider.Response{
		ID:      "resp-1",
		Model:   req.Model,
		Role:    "assistant",
		Content: []message.ContentBlock{message.NewTextBlock(s.text)},
	}, nil
}

func newTestSession(t *testing.T, reply string) (*session, *bytes.Buffer) {
	t.Helper()

	registry := tool.NewRegistry()
	orch := chat.New(&staticTransport{text: reply}, registry, chat.Options{
		Model: "test-model",
	})

	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &session{
		orch:     orch,
		registry: registry,
		store:    store,
		mem:      permission.NewMemory(nil),
		cfg:      config.DefaultConfig(),
		out:      out,
	}, out
}

func TestSessionModelCommand(t *testing.T) {
	s, out := newTestSession(t, "hi")

	s.command("/model")
	assert.Contains(t, out.String(), "test-model")

	out.Reset()
	s.command("/model other-model")
	assert.Contains(t, out.String(), "other-model")
	assert.Equal(t, "other-model", s.orch.Model())
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	s, out := newTestSession(t, "hello there")

	_, err := s.orch.RunTurn(context.Background(), "hello")
	require.NoError(t, err)

	s.command("/save greetings")
	assert.Contains(t, out.String(), `Saved conversation "greetings"`)
	assert.Equal(t, "greetings", s.name)

	out.Reset()
	s.command("/clear")
	assert.Empty(t, s.orch.History())

	out.Reset()
	s.command("/load greetings")
	assert.Contains(t, out.String(), `Loaded conversation "greetings"`)
	assert.Len(t, s.orch.History(), 2)
}

func TestSessionSaveGeneratesName(t *testing.T) {
	s, out := newTestSession(t, "hi")

	s.command("/save")
	assert.NotEmpty(t, s.name)
	assert.Contains(t, out.String(), "Saved conversation")

	names, err := s.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{s.name}, names)
}

func TestSessionListEmpty(t *testing.T) {
	s, out := newTestSession(t, "hi")

	s.command("/list")
	assert.Contains(t, out.String(), "No saved conversations.")
}

func TestSessionDelete(t *testing.T) {
	s, out := newTestSession(t, "hi")

	s.command("/save keep")
	out.Reset()
	s.command("/delete keep")
	assert.Contains(t, out.String(), `Deleted conversation "keep"`)
	assert.Empty(t, s.name)

	names, err := s.store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSessionUnknownCommand(t *testing.T) {
	s, out := newTestSession(t, "hi")

	quit := s.command("/bogus")
	assert.False(t, quit)
	assert.Contains(t, out.String(), "Unknown command /bogus")
}

func TestSessionExitCommand(t *testing.T) {
	s, _ := newTestSession(t, "hi")

	assert.True(t, s.command("/exit"))
	assert.True(t, s.command("/quit"))
}

func TestSessionRunExit(t *testing.T) {
	s, out := newTestSession(t, "echo reply")
	s.in = strings.NewReader("hello\nexit\n")

	err := s.run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "echo reply")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestSessionStats(t *testing.T) {
	s, out := newTestSession(t, "hi")

	s.command("/stats")
	assert.Contains(t, out.String(), "total")
	assert.Contains(t, out.String(), "completed")
}
