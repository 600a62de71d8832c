package logger

import (
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"password", redactedValue},
		{"api_secret", redactedValue},
		{"storage.key", redactedValue},
		{"Authorization", redactedValue},
		{"job", "value"},
		{"service", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := redactSensitive(slog.String(tt.key, "value"))
			if got.Value.String() != tt.want {
				t.Errorf("redactSensitive(%q) = %q, want %q", tt.key, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactSensitive_EmptyValueKept(t *testing.T) {
	got := redactSensitive(slog.String("password", ""))
	if got.Value.String() != "" {
		t.Errorf("empty sensitive value = %q, want empty", got.Value.String())
	}
}

func TestRedactSensitive_Payload(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"bytes", slog.Any("payload", []byte(`{"width":640}`)), "13 bytes"},
		{"string", slog.String("payload", "hello"), "5 bytes"},
		{"other", slog.Int("payload", 7), redactedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactSensitive(tt.attr).Value.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	group := slog.Group("storage", slog.String("dir", "/data"), slog.String("key", "0123456789abcdef"))

	got := redactSensitive(group)
	for _, a := range got.Value.Group() {
		switch a.Key {
		case "dir":
			if a.Value.String() != "/data" {
				t.Errorf("dir = %q", a.Value.String())
			}
		case "key":
			if a.Value.String() != redactedValue {
				t.Errorf("key = %q, want redacted", a.Value.String())
			}
		}
	}
}

func TestRedactSensitive_NonString(t *testing.T) {
	a := slog.Int("token_count", 3)
	if got := redactSensitive(a); got.Value.Int64() != 3 {
		t.Errorf("non-string attr changed: %v", got)
	}
}

func TestLogger_RedactsOutput(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.Info("opened", "secret", "hunter2hunter2", "payload", []byte("abc"))

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, `"payload":"3 bytes"`) {
		t.Errorf("payload not summarized: %s", out)
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"0123456789abcdef", "01...ef"},
	}

	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, key := range []string{"password", "PASSWORD", "client_secret", "bearer_token", "credentials"} {
		if !IsSensitiveKey(key) {
			t.Errorf("IsSensitiveKey(%q) = false", key)
		}
	}
	for _, key := range []string{"name", "addr", "service", "state"} {
		if IsSensitiveKey(key) {
			t.Errorf("IsSensitiveKey(%q) = true", key)
		}
	}
}
