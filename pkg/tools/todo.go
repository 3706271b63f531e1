package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// todoItem is one entry in the persisted list.
type todoItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type todoList struct {
	Todos []todoItem `json:"todos"`
}

// Todo manages a small todo list persisted as a JSON file.
type Todo struct {
	mu   sync.Mutex
	path string
}

// NewTodo creates the tool. An empty path defaults to todos.json in the
// current directory.
func NewTodo(path string) *Todo {
	if path == "" {
		path = "todos.json"
	}
	return &Todo{path: path}
}

func (t *Todo) Name() string { return "todo" }

func (t *Todo) Description() string {
	return "Manage a simple sequential todo list. Actions: add, remove, complete, uncomplete, list, clear_completed"
}

func (t *Todo) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"add", "remove", "complete", "uncomplete", "list", "clear_completed"},
				"description": "The action to perform on the todo list",
			},
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Title of the todo item (required for 'add' action)",
			},
			"id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the todo item (required for 'remove', 'complete', 'uncomplete' actions)",
			},
			"show_completed": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether to show completed items (optional for 'list' action, default: false)",
			},
		},
		"required": []string{"action"},
	}
}

func (t *Todo) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Action        string `json:"action"`
		Title         string `json:"title"`
		ID            string `json:"id"`
		ShowCompleted bool   `json:"show_completed"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	list, err := t.load()
	if err != nil {
		return "", err
	}

	switch in.Action {
	case "add":
		if in.Title == "" {
			return "", fmt.Errorf("'title' is required for the add action")
		}
		id := uuid.NewString()
		list.Todos = append(list.Todos, todoItem{
			ID:        id,
			Title:     in.Title,
			CreatedAt: time.Now().UTC(),
		})
		if err := t.save(list); err != nil {
			return "", err
		}
		return fmt.Sprintf("Added todo '%s' with id: %s", in.Title, id), nil

	case "remove":
		for i, item := range list.Todos {
			if item.ID == in.ID {
				list.Todos = append(list.Todos[:i], list.Todos[i+1:]...)
				if err := t.save(list); err != nil {
					return "", err
				}
				return fmt.Sprintf("Removed todo with id: %s", in.ID), nil
			}
		}
		return "", fmt.Errorf("todo with id %s not found", in.ID)

	case "complete", "uncomplete":
		for i := range list.Todos {
			if list.Todos[i].ID != in.ID {
				continue
			}
			if in.Action == "complete" {
				now := time.Now().UTC()
				list.Todos[i].Completed = true
				list.Todos[i].CompletedAt = &now
			} else {
				list.Todos[i].Completed = false
				list.Todos[i].CompletedAt = nil
			}
			if err := t.save(list); err != nil {
				return "", err
			}
			if in.Action == "complete" {
				return fmt.Sprintf("Marked todo %s as complete", in.ID), nil
			}
			return fmt.Sprintf("Marked todo %s as incomplete", in.ID), nil
		}
		return "", fmt.Errorf("todo with id %s not found", in.ID)

	case "list":
		var lines []string
		for _, item := range list.Todos {
			if item.Completed && !in.ShowCompleted {
				continue
			}
			status := "○"
			if item.Completed {
				status = "✓"
			}
			shortID := item.ID
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			lines = append(lines, fmt.Sprintf("%s [%s] %s", status, shortID, item.Title))
		}
		if len(lines) == 0 {
			return "No todos found", nil
		}
		return strings.Join(lines, "\n"), nil

	case "clear_completed":
		kept := list.Todos[:0]
		removed := 0
		for _, item := range list.Todos {
			if item.Completed {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		list.Todos = kept
		if err := t.save(list); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared %d completed todo(s)", removed), nil

	default:
		return "", fmt.Errorf("unknown action %q", in.Action)
	}
}

func (t *Todo) load() (*todoList, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return &todoList{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read todo file: %w", err)
	}
	var list todoList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse todo file: %w", err)
	}
	return &list, nil
}

func (t *Todo) save(list *todoList) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize todos: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write todo file: %w", err)
	}
	return nil
}
