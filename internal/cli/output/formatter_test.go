package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	ID        string    `json:"id"`
	Count     int       `json:"count"`
	Payload   []byte    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", "", true},
		{"JSON", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatText).(*TextFormatter); !ok {
		t.Error("expected TextFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TextFormatter); !ok {
		t.Error("expected TextFormatter for unknown format")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := sample{ID: "01J", Count: 3, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"id": "01J"`, `"count": 3`, `"created_at": "2024-01-02T03:04:05Z"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "payload") {
		t.Errorf("empty payload should be omitted:\n%s", out)
	}
}

func TestJSONFormatter_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, map[string]string{"name": "<a&b>"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"<a&b>"`) {
		t.Errorf("output escaped HTML: %s", buf.String())
	}
}

func TestJSONFormatter_Fields(t *testing.T) {
	var buf bytes.Buffer
	fields := Fields{
		{Label: "Status", Value: "SERVING"},
		{Label: "Jobs", Value: 3},
		{Label: "Server", Value: "http://127.0.0.1:50051"},
	}
	if err := (&JSONFormatter{}).Format(&buf, fields); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "{\n  \"Status\": \"SERVING\",\n  \"Jobs\": 3,\n  \"Server\": \"http://127.0.0.1:50051\"\n}\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	buf.Reset()
	if err := (&JSONFormatter{}).Format(&buf, Fields{}); err != nil {
		t.Fatalf("Format(empty) error = %v", err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("Format(empty) = %q", buf.String())
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := sample{ID: "01J", Count: 3, Payload: []byte("hi"), CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"id: 01J\n", "count: 3\n", "payload: aGk=\n", "created_at:", "2024-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestYAMLFormatter_Unmarshalable(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, make(chan int)); err == nil {
		t.Error("Format(chan) error = nil")
	}
}

func TestTextFormatter_Fields(t *testing.T) {
	var buf bytes.Buffer
	fields := Fields{
		{Label: "ID", Value: "01J"},
		{Label: "State", Value: "queued"},
	}

	if err := (&TextFormatter{}).Format(&buf, fields); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "ID:     01J\nState:  queued\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestTextFormatter_Other(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).Format(&buf, "SERVING"); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := buf.String(); got != "SERVING\n" {
		t.Errorf("Format() = %q", got)
	}
}
