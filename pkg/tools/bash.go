package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const defaultBashTimeout = 30 * time.Second

// Bash runs a shell command and reports its output. A non-zero exit is a
// result, not an error, so the model can see what went wrong.
type Bash struct {
	Dir     string
	Timeout time.Duration
}

func (b *Bash) Name() string { return "bash" }

func (b *Bash) Description() string {
	return "Execute bash commands or scripts"
}

func (b *Bash) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The bash command or script to execute",
			},
		},
		"required":             []string{"command"},
		"additionalProperties": false,
	}
}

func (b *Bash) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Command == "" {
		return "", fmt.Errorf("missing 'command' field. Example: {\"command\": \"ls -la\"}")
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = defaultBashTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", in.Command)
	cmd.Dir = b.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %s", timeout)
	}
	if err == nil {
		return stdout.String(), nil
	}

	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else {
		return "", fmt.Errorf("failed to execute bash command: %w", err)
	}

	return fmt.Sprintf("Exit code: %d\nStdout:\n%s\nStderr:\n%s",
		exitCode, stdout.String(), stderr.String()), nil
}
