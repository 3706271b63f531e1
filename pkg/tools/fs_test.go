package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello\nworld\n"), 0644))

	rf := &ReadFile{Root: dir}
	out, err := rf.Execute(context.Background(), json.RawMessage(`{"path":"note.txt"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", out)

	_, err = rf.Execute(context.Background(), json.RawMessage(`{"path":"missing.txt"}`))
	assert.Error(t, err)
}

func TestReadFileEscapeRejected(t *testing.T) {
	rf := &ReadFile{Root: t.TempDir()}
	_, err := rf.Execute(context.Background(), json.RawMessage(`{"path":"../../etc/passwd"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the workspace root")
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	ld := &ListDirectory{Root: dir}
	out, err := ld.Execute(context.Background(), json.RawMessage(`{"path":"."}`))
	require.NoError(t, err)
	assert.Equal(t, "[DIR] sub\n[FILE] b.txt", out)
}

func TestPatchFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.txt"), []byte("Hello\nthere\n"), 0644))

	diff := "--- a/greet.txt\n+++ b/greet.txt\n@@ -1,2 +1,2 @@\n-Hello\n+Hello, world!\n there\n"
	input, err := json.Marshal(map[string]string{"path": "greet.txt", "diff": diff})
	require.NoError(t, err)

	pf := &PatchFile{Root: dir}
	out, err := pf.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully patched greet.txt")

	data, err := os.ReadFile(filepath.Join(dir, "greet.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\nthere\n", string(data))
}

func TestPatchFileContextMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.txt"), []byte("different\n"), 0644))

	diff := "@@ -1 +1 @@\n-Hello\n+Goodbye\n"
	input, err := json.Marshal(map[string]string{"path": "greet.txt", "diff": diff})
	require.NoError(t, err)

	pf := &PatchFile{Root: dir}
	_, err = pf.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply patch")
}

func TestPatchFileMultipleHunks(t *testing.T) {
	dir := t.TempDir()
	var lines string
	for i := 1; i <= 10; i++ {
		lines += fmt.Sprintf("line %d\n", i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "many.txt"), []byte(lines), 0644))

	diff := "@@ -1,2 +1,2 @@\n-line 1\n+first\n line 2\n@@ -9,2 +9,2 @@\n line 9\n-line 10\n+last\n"
	input, err := json.Marshal(map[string]string{"path": "many.txt", "diff": diff})
	require.NoError(t, err)

	pf := &PatchFile{Root: dir}
	out, err := pf.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, out, "2 hunk(s) applied")

	data, err := os.ReadFile(filepath.Join(dir, "many.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first\nline 2")
	assert.Contains(t, string(data), "line 9\nlast")
}
