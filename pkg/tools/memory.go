package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryStore holds long-term memories in a SQLite database shared by the
// memory_save, memory_recall, and memory_delete tools.
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore opens (or creates) the database at path.
func NewMemoryStore(path string) (*MemoryStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create memory directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		tags TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		accessed_at TIMESTAMP NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &MemoryStore{db: db}, nil
}

// Close releases the database handle.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

type memoryRow struct {
	ID          string
	Content     string
	Tags        []string
	CreatedAt   time.Time
	AccessCount int
}

func (s *MemoryStore) save(ctx context.Context, content string, tags []string) (string, error) {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	id := "mem_" + uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO memories (id, content, tags, created_at, accessed_at, access_count) VALUES (?, ?, ?, ?, ?, 0)",
		id, content, string(tagsJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save memory: %w", err)
	}
	return id, nil
}

func (s *MemoryStore) recall(ctx context.Context, query string, filterTags []string, limit int) ([]memoryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, tags, created_at, access_count FROM memories ORDER BY access_count DESC, accessed_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	queryLower := strings.ToLower(query)
	matched := []memoryRow{}
	for rows.Next() {
		var row memoryRow
		var tagsJSON string
		if err := rows.Scan(&row.ID, &row.Content, &tagsJSON, &row.CreatedAt, &row.AccessCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &row.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags for %s: %w", row.ID, err)
		}

		if !hasAllTags(row.Tags, filterTags) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(row.Content), queryLower) && !tagMatches(row.Tags, queryLower) {
			continue
		}

		matched = append(matched, row)
		if len(matched) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, row := range matched {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE memories SET accessed_at = ?, access_count = access_count + 1 WHERE id = ?",
			now, row.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to update access info: %w", err)
		}
	}
	return matched, nil
}

func (s *MemoryStore) delete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete memory %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}
	return deleted, nil
}

func hasAllTags(have, want []string) bool {
	for _, tag := range want {
		found := false
		for _, h := range have {
			if h == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func tagMatches(tags []string, queryLower string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), queryLower) {
			return true
		}
	}
	return false
}

// MemorySave stores a note for later recall.
type MemorySave struct {
	store *MemoryStore
}

func (m *MemorySave) Name() string { return "memory_save" }

func (m *MemorySave) Description() string {
	return "Save information to long-term memory with tags and metadata"
}

func (m *MemorySave) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The information to remember",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Tags to categorize this memory",
			},
		},
		"required":             []string{"content", "tags"},
		"additionalProperties": false,
	}
}

func (m *MemorySave) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Content == "" {
		return "", fmt.Errorf("missing 'content' field. Example: {\"content\": \"Important information to remember\", \"tags\": [\"info\", \"important\"]}")
	}

	id, err := m.store.save(ctx, in.Content, in.Tags)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Memory saved with ID: %s", id), nil
}

// MemoryRecall searches stored memories by content and tags.
type MemoryRecall struct {
	store *MemoryStore
}

func (m *MemoryRecall) Name() string { return "memory_recall" }

func (m *MemoryRecall) Description() string {
	return "Recall memories by searching content, tags, or metadata"
}

func (m *MemoryRecall) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query for memory content",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Filter by these tags (memories must have all specified tags)",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of memories to return (default: 5)",
			},
		},
		"additionalProperties": false,
	}
}

func (m *MemoryRecall) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Query string   `json:"query"`
		Tags  []string `json:"tags"`
		Limit int      `json:"limit"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}
	}
	if in.Limit <= 0 {
		in.Limit = 5
	}

	memories, err := m.store.recall(ctx, in.Query, in.Tags, in.Limit)
	if err != nil {
		return "", err
	}
	if len(memories) == 0 {
		return "No matching memories found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n\n", len(memories))
	for i, mem := range memories {
		fmt.Fprintf(&b, "%d. [%s] %s\n   Tags: %s\n   Created: %s\n   Accessed: %d times\n\n",
			i+1, mem.ID, mem.Content, strings.Join(mem.Tags, ", "),
			mem.CreatedAt.Format("2006-01-02 15:04:05"), mem.AccessCount)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// MemoryDelete removes memories by ID.
type MemoryDelete struct {
	store *MemoryStore
}

func (m *MemoryDelete) Name() string { return "memory_delete" }

func (m *MemoryDelete) Description() string {
	return "Delete specific memories by ID"
}

func (m *MemoryDelete) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"memory_ids": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "IDs of memories to delete",
			},
		},
		"required":             []string{"memory_ids"},
		"additionalProperties": false,
	}
}

func (m *MemoryDelete) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		MemoryIDs []string `json:"memory_ids"`
	}
	if err := json.Unmarshal(input, &in); err != nil || len(in.MemoryIDs) == 0 {
		return "", fmt.Errorf("missing 'memory_ids' field. Example: {\"memory_ids\": [\"mem_123\", \"mem_456\"]}")
	}

	deleted, err := m.store.delete(ctx, in.MemoryIDs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %d memories", deleted), nil
}
