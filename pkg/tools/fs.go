package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxReadBytes = 200000

// ReadFile reads a text file, truncating very large files.
type ReadFile struct {
	Root string
}

func (r *ReadFile) Name() string { return "read_file" }

func (r *ReadFile) Description() string {
	return "Read content from a file on the filesystem"
}

func (r *ReadFile) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The file path to read from",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

func (r *ReadFile) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Path == "" {
		return "", fmt.Errorf("missing 'path' field. Example: {\"path\": \"/home/user/document.txt\"}")
	}

	target, err := resolvePath(r.Root, in.Path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxReadBytes {
		return string(data[:maxReadBytes]) + "\n... [file truncated]", nil
	}
	return string(data), nil
}

// ListDirectory lists a directory's entries, one per line, marking
// directories.
type ListDirectory struct {
	Root string
}

func (l *ListDirectory) Name() string { return "list_directory" }

func (l *ListDirectory) Description() string {
	return "List files and directories in a given path"
}

func (l *ListDirectory) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The directory path to list",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

func (l *ListDirectory) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Path == "" {
		return "", fmt.Errorf("missing 'path' field. Example: {\"path\": \"/home/user/documents\"}")
	}

	target, err := resolvePath(l.Root, in.Path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		kind := "[FILE]"
		if entry.IsDir() {
			kind = "[DIR]"
		}
		lines = append(lines, fmt.Sprintf("%s %s", kind, entry.Name()))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

// PatchFile applies a unified diff to one file, all hunks in order.
type PatchFile struct {
	Root string
}

func (p *PatchFile) Name() string { return "patch_file" }

func (p *PatchFile) Description() string {
	return "Apply a diff/patch to a file on the filesystem"
}

func (p *PatchFile) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The file path to patch",
			},
			"diff": map[string]interface{}{
				"type":        "string",
				"description": "The diff/patch content to apply (in unified diff format)",
			},
		},
		"required":             []string{"path", "diff"},
		"additionalProperties": false,
	}
}

func (p *PatchFile) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
		Diff string `json:"diff"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("expected JSON object with 'path' and 'diff' fields: %w", err)
	}
	if in.Path == "" {
		return "", fmt.Errorf("missing 'path' field")
	}
	if strings.TrimSpace(in.Diff) == "" {
		return "", fmt.Errorf("missing 'diff' field")
	}

	target, err := resolvePath(p.Root, in.Path)
	if err != nil {
		return "", err
	}

	orig, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hunks, err := parseUnifiedDiff(in.Diff)
	if err != nil {
		return "", err
	}
	newLines, applied, err := applyHunks(splitLines(string(orig)), hunks)
	if err != nil {
		return "", fmt.Errorf("failed to apply patch: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, []byte(strings.Join(newLines, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("Successfully patched %s: %d hunk(s) applied", in.Path, applied), nil
}

type hunkLine struct {
	kind byte
	text string
}

type hunk struct {
	start int
	lines []hunkLine
}

func parseUnifiedDiff(diff string) ([]hunk, error) {
	var hunks []hunk
	var current *hunk

	for _, raw := range strings.Split(diff, "\n") {
		line := strings.TrimRight(raw, "\r")
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			start, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, hunk{start: start})
			current = &hunks[len(hunks)-1]
		default:
			if current == nil || len(line) == 0 {
				continue
			}
			switch line[0] {
			case ' ', '+', '-':
				current.lines = append(current.lines, hunkLine{kind: line[0], text: line[1:]})
			}
		}
	}
	if len(hunks) == 0 {
		return nil, fmt.Errorf("no hunks found in diff")
	}
	return hunks, nil
}

func parseHunkHeader(line string) (int, error) {
	// format: @@ -start,count +start,count @@
	parts := strings.Split(line, " ")
	if len(parts) < 3 {
		return 0, fmt.Errorf("invalid hunk header: %s", line)
	}
	left := strings.TrimPrefix(parts[1], "-")
	start := strings.Split(left, ",")[0]
	var startInt int
	if _, err := fmt.Sscanf(start, "%d", &startInt); err != nil {
		return 0, fmt.Errorf("invalid hunk header: %s", line)
	}
	if startInt < 1 {
		startInt = 1
	}
	return startInt, nil
}

func applyHunks(orig []string, hunks []hunk) ([]string, int, error) {
	out := make([]string, 0, len(orig))
	idx := 0
	applied := 0

	for _, h := range hunks {
		target := h.start - 1
		if target < idx {
			target = idx
		}
		if target > len(orig) {
			target = len(orig)
		}
		out = append(out, orig[idx:target]...)
		idx = target

		for _, ln := range h.lines {
			switch ln.kind {
			case ' ':
				if idx >= len(orig) || orig[idx] != ln.text {
					return nil, applied, fmt.Errorf("context mismatch at line %d", idx+1)
				}
				out = append(out, orig[idx])
				idx++
			case '-':
				if idx >= len(orig) || orig[idx] != ln.text {
					return nil, applied, fmt.Errorf("delete mismatch at line %d", idx+1)
				}
				idx++
			case '+':
				out = append(out, ln.text)
			}
		}
		applied++
	}

	out = append(out, orig[idx:]...)
	return out, applied, nil
}

func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// resolvePath confines relative paths to the root when one is set.
// Absolute paths are allowed only when no root is configured.
func resolvePath(root, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if root == "" {
		return filepath.Clean(path), nil
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace root", path)
	}
	return candidate, nil
}
