package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimas/aruna/pkg/tool"
)

func TestRegisterAll(t *testing.T) {
	dir := t.TempDir()
	registry := tool.NewRegistry()
	err := RegisterAll(registry, Options{
		WorkspaceRoot: dir,
		TodoPath:      filepath.Join(dir, "todos.json"),
		MemoryDBPath:  filepath.Join(dir, "memories.db"),
	})
	require.NoError(t, err)

	names := registry.Names()
	assert.Contains(t, names, "calculator")
	assert.Contains(t, names, "bash")
	assert.Contains(t, names, "memory_save")
	assert.Len(t, names, 13)
}

func TestBashSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash not available")
	}
	b := &Bash{}
	out, err := b.Execute(context.Background(), json.RawMessage(`{"command":"echo hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestBashFailureIsResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash not available")
	}
	b := &Bash{}
	out, err := b.Execute(context.Background(), json.RawMessage(`{"command":"echo oops >&2; exit 3"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Exit code: 3")
	assert.Contains(t, out, "oops")
}

func TestBashTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash not available")
	}
	b := &Bash{Timeout: 50 * time.Millisecond}
	_, err := b.Execute(context.Background(), json.RawMessage(`{"command":"sleep 5"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSystemInfo(t *testing.T) {
	s := &SystemInfo{}
	out, err := s.Execute(context.Background(), json.RawMessage(`{"info_type":"os"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Operating System:")

	_, err = s.Execute(context.Background(), json.RawMessage(`{"info_type":"bogus"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown info_type")
}

func TestThink(t *testing.T) {
	th := &Think{}
	out, err := th.Execute(context.Background(), json.RawMessage(`{"topic":"caching strategy"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "caching strategy")
	assert.Contains(t, out, "Thinking...")
}

func TestTodoLifecycle(t *testing.T) {
	todo := NewTodo(filepath.Join(t.TempDir(), "todos.json"))
	ctx := context.Background()

	out, err := todo.Execute(ctx, json.RawMessage(`{"action":"add","title":"write tests"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Added todo 'write tests' with id: ")
	id := out[len("Added todo 'write tests' with id: "):]

	out, err = todo.Execute(ctx, json.RawMessage(`{"action":"list"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "write tests")
	assert.Contains(t, out, "○")

	input, _ := json.Marshal(map[string]string{"action": "complete", "id": id})
	_, err = todo.Execute(ctx, input)
	require.NoError(t, err)

	out, err = todo.Execute(ctx, json.RawMessage(`{"action":"list"}`))
	require.NoError(t, err)
	assert.Equal(t, "No todos found", out)

	out, err = todo.Execute(ctx, json.RawMessage(`{"action":"list","show_completed":true}`))
	require.NoError(t, err)
	assert.Contains(t, out, "✓")

	out, err = todo.Execute(ctx, json.RawMessage(`{"action":"clear_completed"}`))
	require.NoError(t, err)
	assert.Equal(t, "Cleared 1 completed todo(s)", out)

	_, err = todo.Execute(ctx, json.RawMessage(`{"action":"remove","id":"nope"}`))
	assert.Error(t, err)
}

func TestHTTPFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aruna/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	h := &HTTPFetch{Client: server.Client()}
	input, _ := json.Marshal(map[string]string{"url": server.URL})
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	var resp fetchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, `{"ok":true}`, resp.Body)
	assert.Equal(t, "application/json", resp.ContentType)
}

func TestHTTPFetchRejectsLocalAndBadInput(t *testing.T) {
	h := &HTTPFetch{}
	ctx := context.Background()

	_, err := h.Execute(ctx, json.RawMessage(`{"url":"ftp://example.com"}`))
	assert.Error(t, err)

	_, err = h.Execute(ctx, json.RawMessage(`{"url":"http://localhost:8080/admin"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local addresses")

	_, err = h.Execute(ctx, json.RawMessage(`{"url":"http://example.com","method":"TRACE"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported HTTP method")
}

func TestWeather(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"Berlin","country":"Germany","latitude":52.52,"longitude":13.41}]}`))
	}))
	defer geo.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":{"temperature_2m":21.5,"apparent_temperature":20.1,"weather_code":2,"wind_speed_10m":12.3,"relative_humidity_2m":60}}`))
	}))
	defer forecast.Close()

	weather := &Weather{BaseGeocodingURL: geo.URL, BaseForecastURL: forecast.URL}
	out, err := weather.Execute(context.Background(), json.RawMessage(`{"city":"Berlin"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Weather in Berlin, Germany")
	assert.Contains(t, out, "21.5°C")
	assert.Contains(t, out, "Partly cloudy")
}

func TestWeatherCityNotFound(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer geo.Close()

	weather := &Weather{BaseGeocodingURL: geo.URL}
	_, err := weather.Execute(context.Background(), json.RawMessage(`{"city":"Atlantis"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}
