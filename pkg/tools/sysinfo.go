package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// SystemInfo reports the local time, date, and operating system.
type SystemInfo struct{}

func (s *SystemInfo) Name() string { return "system_info" }

func (s *SystemInfo) Description() string {
	return "Gets system information like current time, date, and OS details"
}

func (s *SystemInfo) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"info_type": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"time", "date", "datetime", "os", "all"},
				"description": "The type of system information to retrieve",
			},
		},
		"required":             []string{"info_type"},
		"additionalProperties": false,
	}
}

func (s *SystemInfo) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		InfoType string `json:"info_type"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.InfoType == "" {
		return "", fmt.Errorf("missing 'info_type' field. Example: {\"info_type\": \"datetime\"}")
	}

	now := time.Now()
	switch in.InfoType {
	case "time":
		return fmt.Sprintf("Current time: %s", now.Format("03:04:05 PM")), nil
	case "date":
		return fmt.Sprintf("Current date: %s", now.Format("Monday, January 02, 2006")), nil
	case "datetime":
		return fmt.Sprintf("Current date and time: %s", now.Format("2006-01-02 03:04:05 PM")), nil
	case "os":
		return fmt.Sprintf("Operating System: %s", osName()), nil
	case "all":
		return fmt.Sprintf("System Information:\n- %s\n- Operating System: %s",
			now.Format("Monday, January 02, 2006 at 03:04:05 PM"), osName()), nil
	default:
		return "", fmt.Errorf("unknown info_type: %q. Valid options: time, date, datetime, os, all", in.InfoType)
	}
}

func osName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}
