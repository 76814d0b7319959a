package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHost(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "hostname preserved",
			input: "https://cluster.example:6443",
			want:  "https://cluster.example:6443",
		},
		{
			name:  "ipv4 url redacted",
			input: "https://10.0.0.5:6443",
			want:  "https://REDACTED:6443",
		},
		{
			name:  "ipv6 url redacted",
			input: "https://[2001:db8::1]:6443",
			want:  "https://[REDACTED]:6443",
		},
		{
			name:  "ipv4 in free text",
			input: "dial tcp 192.168.1.10:6443: connection refused",
			want:  "dial tcp REDACTED:6443: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeHost(tt.input))
		})
	}
}

func TestSanitizedErr(t *testing.T) {
	attr := SanitizedErr(errors.New("failed to fetch schema from https://10.0.0.5:6443"))
	assert.Equal(t, KeyError, attr.Key)
	assert.NotContains(t, attr.Value.String(), "10.0.0.5")
	assert.Contains(t, attr.Value.String(), "REDACTED")

	assert.Equal(t, "", SanitizedErr(nil).Value.String())
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, KeyKind, Kind("Pod").Key)
	assert.Equal(t, "Pod", Kind("Pod").Value.String())
	assert.Equal(t, KeyAction, Action("list").Key)
	assert.Equal(t, KeyVersion, Version("v1").Key)
	assert.Equal(t, KeyGroup, Group("apps").Key)
	assert.Equal(t, KeyPath, Path("/api/").Key)
	assert.Equal(t, KeyMethod, Method("GET").Key)
	assert.Equal(t, KeyStatus, Status(200).Key)
	assert.Equal(t, KeyDuration, Duration(time.Second).Key)
	assert.Equal(t, KeyError, Err(errors.New("boom")).Key)
	assert.Equal(t, "", Err(nil).Value.String())
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithOperation(logger, "invoke").Info("done")

	assert.Contains(t, buf.String(), "operation=invoke")
}
