// Package config provides configuration management for the native bridge host.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	// Backend selects the native toolkit: "auto", "terminal", "win32" or "headless"
	Backend string `json:"backend"`

	// Window is the main window created by the host
	Window WindowConfig `json:"window"`

	// Input contains capture session settings
	Input InputConfig `json:"input"`

	// Hotkeys maps host actions to key chords (e.g. "quit": "Ctrl+Alt+Q")
	Hotkeys map[string]string `json:"hotkeys,omitempty"`

	// TrayEnabled shows a system tray icon with Show and Quit entries
	TrayEnabled bool `json:"tray_enabled"`

	// TelemetryPath is the sqlite database receiving per-poll statistics.
	// Empty disables the recorder.
	TelemetryPath string `json:"telemetry_path,omitempty"`

	// FrameRate is the target host frames per second
	FrameRate int `json:"frame_rate"`
}

// WindowConfig describes the main window
type WindowConfig struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Title  string  `json:"title"`
}

// InputConfig contains capture session settings
type InputConfig struct {
	// Keyboard starts keyboard monitoring at startup
	Keyboard bool `json:"keyboard"`

	// Mouse starts mouse monitoring at startup
	Mouse bool `json:"mouse"`

	// LogOverflow logs every batch that dropped events
	LogOverflow bool `json:"log_overflow"`

	// MaxEventsPerPump bounds the native events dispatched per frame
	MaxEventsPerPump int `json:"max_events_per_pump"`

	// GameHalfExtent maps the window onto [-E, E] game coordinates
	GameHalfExtent float32 `json:"game_half_extent"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: "auto",
		Window: WindowConfig{
			Width:  640,
			Height: 480,
			Title:  "nativebridge",
		},
		Input: InputConfig{
			Keyboard:         true,
			Mouse:            true,
			LogOverflow:      true,
			MaxEventsPerPump: 10,
			GameHalfExtent:   10,
		},
		Hotkeys: map[string]string{
			"quit": "Esc",
		},
		TrayEnabled: false,
		FrameRate:   60,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", "auto", "terminal", "win32", "headless":
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}
	// The host presents whole pixels, so anything under one pixel is empty.
	if !(c.Window.Width >= 1) || !(c.Window.Height >= 1) {
		return fmt.Errorf("%w: window size %vx%v", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Window.Title == "" {
		return fmt.Errorf("%w: empty window title", ErrInvalid)
	}
	if c.Input.MaxEventsPerPump < 0 {
		return fmt.Errorf("%w: max_events_per_pump %d", ErrInvalid, c.Input.MaxEventsPerPump)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: frame_rate %d", ErrInvalid, c.FrameRate)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager for the per-user config file
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager for an explicit file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "nativebridge")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "nativebridge")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "nativebridge")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("load %s: %w", m.configPath, err)
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	log.Printf("Config: Loaded configuration from %s", m.configPath)
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
