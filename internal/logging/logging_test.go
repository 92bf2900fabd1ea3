package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ppiankov/candidstance/internal/model"
)

func TestNew(t *testing.T) {
	tests := []struct {
		desc      string
		cfg       model.LogConfig
		expectErr bool
	}{
		{"text info", model.LogConfig{Level: "info", Format: "text"}, false},
		{"json debug", model.LogConfig{Level: "debug", Format: "json"}, false},
		{"default format", model.LogConfig{Level: "warn"}, false},
		{"bad level", model.LogConfig{Level: "loud"}, true},
		{"bad format", model.LogConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestComponentField(t *testing.T) {
	logger, err := New(model.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	Component(logger, "verify").Info("hello")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON log line, got %q", buf.String())
	}
	if line["component"] != "verify" {
		t.Errorf("Expected component=verify, got %v", line["component"])
	}
}

func TestOutputFile(t *testing.T) {
	cfg := model.LogConfig{File: filepath.Join(t.TempDir(), "app.log"), MaxSizeMB: 1}
	if _, ok := Output(cfg).(*lumberjack.Logger); !ok {
		t.Fatalf("Expected rotating file writer, got %T", Output(cfg))
	}
	if Output(model.LogConfig{}) == nil {
		t.Error("Expected stderr writer for empty config")
	}
}

func TestDiscard(t *testing.T) {
	entry := Discard()
	entry.Error("dropped")
	if entry.Logger.Out == nil {
		t.Error("Expected a non-nil writer")
	}
}
