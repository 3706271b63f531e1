// Package state persists conversations to disk so a chat can be saved,
// listed, and resumed later. A saved conversation carries the full message
// history, the model in use, and the remembered permission choices.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/permission"
)

// Conversation is the serializable snapshot of a chat.
type Conversation struct {
	History          []message.Message `json:"history"`
	Model            string            `json:"model"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	MaxResultLength  int               `json:"max_result_length,omitempty"`
	AlwaysAllowTools []string          `json:"always_allow_tools,omitempty"`
	AlwaysDenyTools  []string          `json:"always_deny_tools,omitempty"`
	SavedAt          time.Time         `json:"saved_at"`
}

// CapturePermissions copies the remembered choices out of a permission
// memory into the snapshot.
func (c *Conversation) CapturePermissions(mem *permission.Memory) {
	c.AlwaysAllowTools, c.AlwaysDenyTools = mem.Snapshot()
}

// ApplyPermissions restores the remembered choices into a permission
// memory.
func (c *Conversation) ApplyPermissions(mem *permission.Memory) {
	mem.Restore(c.AlwaysAllowTools, c.AlwaysDenyTools)
}

// Store reads and writes conversations as JSON files under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, defaulting to
// ~/.aruna/conversations.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".aruna", "conversations")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	log.Debug().Str("dir", dir).Msg("Conversation store initialized")
	return &Store{dir: dir}, nil
}

// DefaultName generates a short random conversation name.
func DefaultName() string {
	id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 10)
	if err != nil {
		// the alphabet is valid, so this only fails if the entropy
		// source does
		return fmt.Sprintf("conv-%d", time.Now().UnixNano())
	}
	return "conv-" + id
}

// Save writes the conversation under the given name, overwriting any
// previous snapshot.
func (s *Store) Save(name string, conv *Conversation) error {
	if err := validateName(name); err != nil {
		return err
	}

	conv.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}

	log.Info().Str("name", name).Int("messages", len(conv.History)).Msg("Conversation saved")
	return nil
}

// Load reads a saved conversation by name.
func (s *Store) Load(name string) (*Conversation, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation %q not found", name)
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %q: %w", name, err)
	}
	return &conv, nil
}

// List returns the names of all saved conversations, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a saved conversation. Deleting a missing conversation is
// not an error.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("conversation name cannot be empty")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("conversation name cannot contain '..'")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("conversation name cannot contain path separators")
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("conversation name cannot contain null bytes")
	}
	return nil
}
