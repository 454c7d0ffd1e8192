// Package hotkey matches key and mouse button chords against polled input
// batches.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"nativebridge/internal/input"
	"nativebridge/internal/native"
)

// Manager handles hotkey registration and matching
type Manager struct {
	mu           sync.Mutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // keys and buttons currently held
}

type registeredHotkey struct {
	parts    []string // e.g. ["CTRL", "ALT", "MOUSE4"]
	original string
	callback func()
}

var aliases = map[string]string{
	"CONTROL": "CTRL",
	"OPTION":  "ALT",
	"OPT":     "ALT",
	"COMMAND": "CMD",
	"SUPER":   "CMD",
	"WIN":     "CMD",
	"ESCAPE":  "ESC",
	"RETURN":  "ENTER",
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Register registers a chord such as "Ctrl+Alt+1" or "Mouse2+Mouse3".
// Every part must name a key, a modifier or a mouse button.
func (m *Manager) Register(chord string, callback func()) error {
	if strings.TrimSpace(chord) == "" {
		return fmt.Errorf("empty hotkey")
	}

	parts := strings.Split(strings.ToUpper(chord), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if a, ok := aliases[p]; ok {
			p = a
		}
		if !knownPart(p) {
			return fmt.Errorf("hotkey %q: unknown key %q", chord, p)
		}
		parts[i] = p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: chord,
		callback: callback,
	})
	return nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
	m.currentState = make(map[string]bool)
}

// FeedKeys applies a keyboard batch in order and fires matched hotkeys.
func (m *Manager) FeedKeys(batch *input.KeyBatch) {
	for _, ev := range batch.Slice() {
		if ev.Repeat {
			continue
		}
		name := native.KeyName(ev.Code)
		if name == "" {
			continue
		}
		m.UpdateState(name, ev.Type == input.KeyPress, ev.Modifiers)
	}
}

// FeedMouse applies the button events of a mouse batch.
func (m *Manager) FeedMouse(batch *input.MouseBatch) {
	for _, ev := range batch.Slice() {
		if ev.Button == input.ButtonNone {
			continue
		}
		switch ev.Type {
		case input.ButtonPress:
			m.UpdateState(mouseName(ev.Button), true, ev.Modifiers)
		case input.ButtonRelease:
			m.UpdateState(mouseName(ev.Button), false, ev.Modifiers)
		}
	}
}

// UpdateState records a key or button transition. A press that completes a
// chord runs its callback; modifiers held at the time count as pressed.
func (m *Manager) UpdateState(key string, isDown bool, mods native.Modifiers) {
	key = strings.ToUpper(key)

	m.mu.Lock()
	if !isDown {
		delete(m.currentState, key)
		m.mu.Unlock()
		return
	}
	m.currentState[key] = true
	matched := m.matches(key, mods)
	m.mu.Unlock()

	for _, hk := range matched {
		log.Printf("Hotkey triggered: %s", hk.original)
		hk.callback()
	}
}

func (m *Manager) matches(trigger string, mods native.Modifiers) []*registeredHotkey {
	held := func(part string) bool {
		switch part {
		case "SHIFT":
			if mods&native.ModShift != 0 {
				return true
			}
		case "CTRL":
			if mods&native.ModCtrl != 0 {
				return true
			}
		case "ALT":
			if mods&native.ModAlt != 0 {
				return true
			}
		case "CMD":
			if mods&native.ModSuper != 0 {
				return true
			}
		}
		return m.currentState[part]
	}

	var out []*registeredHotkey
	for _, hk := range m.hotkeys {
		match, hasTrigger := true, false
		for _, part := range hk.parts {
			if part == trigger {
				hasTrigger = true
			}
			if !held(part) {
				match = false
				break
			}
		}
		if match && hasTrigger && hk.callback != nil {
			out = append(out, hk)
		}
	}
	return out
}

func mouseName(b input.Button) string {
	return fmt.Sprintf("MOUSE%d", int(b)+1)
}

func knownPart(p string) bool {
	if strings.HasPrefix(p, "MOUSE") {
		switch p {
		case "MOUSE1", "MOUSE2", "MOUSE3", "MOUSE4", "MOUSE5":
			return true
		}
		return false
	}
	for code := 0; code < 256; code++ {
		if native.KeyName(uint8(code)) == p {
			return true
		}
	}
	return false
}
