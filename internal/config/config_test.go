package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.Input.MaxEventsPerPump != 10 {
		t.Errorf("Expected 10 events per pump, got %d", cfg.Input.MaxEventsPerPump)
	}
	if cfg.Backend != "auto" {
		t.Errorf("Expected auto backend, got %q", cfg.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "cocoa" }},
		{"width", func(c *Config) { c.Window.Width = 0 }},
		{"height", func(c *Config) { c.Window.Height = -3 }},
		{"sub-pixel width", func(c *Config) { c.Window.Width = 0.5 }},
		{"sub-pixel height", func(c *Config) { c.Window.Height = 0.99 }},
		{"empty title", func(c *Config) { c.Window.Title = "" }},
		{"pump", func(c *Config) { c.Input.MaxEventsPerPump = -1 }},
		{"frame rate", func(c *Config) { c.FrameRate = 0 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m := NewManagerAt(path)

	cfg := DefaultConfig()
	cfg.Backend = "headless"
	cfg.Window.Title = "saved"
	cfg.TelemetryPath = "input.db"
	m.Set(cfg)
	if err := m.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewManagerAt(path)
	changed := 0
	loaded.RegisterChangeCallback(func() { changed++ })
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := loaded.Get()
	if got.Backend != "headless" || got.Window.Title != "saved" || got.TelemetryPath != "input.db" {
		t.Errorf("Expected saved values, got %+v", got)
	}
	if changed != 1 {
		t.Errorf("Expected change callback once, got %d", changed)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "absent.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Expected missing file to be ignored, got %v", err)
	}
	if m.Get().Window.Title != "nativebridge" {
		t.Errorf("Expected default title, got %q", m.Get().Window.Title)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"backend":"terminal"}`), 0644); err != nil {
		t.Fatal(err)
	}
	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Get().Backend != "terminal" || m.Get().FrameRate != 60 {
		t.Errorf("Expected backend override with default frame rate, got %+v", m.Get())
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"frame_rate":-1}`), 0644)

	m := NewManagerAt(path)
	if err := m.Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
	if m.Get().FrameRate != 60 {
		t.Errorf("Expected previous config to be kept, got %d", m.Get().FrameRate)
	}

	os.WriteFile(path, []byte(`{not json`), 0644)
	if err := m.Load(); err == nil {
		t.Error("Expected a parse error")
	}
}
