package permission

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecision_Constructors(t *testing.T) {
	assert.True(t, Allow().Allowed())
	assert.False(t, Deny().Allowed())

	d := DenyWithReason("not today")
	assert.False(t, d.Allowed())
	assert.Equal(t, "not today", d.Reason)
}

func TestAllowAllDenyAll(t *testing.T) {
	req := Request{ToolName: "bash"}

	assert.True(t, AllowAll{}.CheckPermission(context.Background(), req).Allowed())
	assert.False(t, DenyAll{}.CheckPermission(context.Background(), req).Allowed())
}

func TestLogOnly_Allows(t *testing.T) {
	req := Request{ToolName: "bash", Input: json.RawMessage(`{"command":"ls"}`)}
	assert.True(t, LogOnly{}.CheckPermission(context.Background(), req).Allowed())
}

func TestPolicy(t *testing.T) {
	tests := []struct {
		name         string
		allowed      []string
		defaultAllow bool
		tool         string
		want         bool
	}{
		{"listed tool", []string{"calculator", "weather"}, false, "calculator", true},
		{"unlisted tool denied by default", []string{"calculator"}, false, "bash", false},
		{"unlisted tool with default allow", []string{"calculator"}, true, "bash", true},
		{"empty list deny default", nil, false, "calculator", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.allowed, tt.defaultAllow)
			got := p.CheckPermission(context.Background(), Request{ToolName: tt.tool})
			assert.Equal(t, tt.want, got.Allowed())
		})
	}
}

func TestPolicy_DenyReasonNamesTool(t *testing.T) {
	p := NewPolicy([]string{"calculator"}, false)
	d := p.CheckPermission(context.Background(), Request{ToolName: "bash"})
	assert.Contains(t, d.Reason, "bash")
}
