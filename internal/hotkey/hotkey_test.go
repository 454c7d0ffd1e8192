package hotkey

import (
	"testing"

	"nativebridge/internal/input"
	"nativebridge/internal/native"
)

func keyBatch(events ...input.KeyEvent) *input.KeyBatch {
	var b input.KeyBatch
	for i, ev := range events {
		b.Events[i] = ev
	}
	b.Count = len(events)
	return &b
}

func TestRegisterRejectsUnknownKeys(t *testing.T) {
	m := NewManager()
	if err := m.Register("", nil); err == nil {
		t.Error("Expected empty hotkey to be rejected")
	}
	if err := m.Register("Ctrl+Banana", nil); err == nil {
		t.Error("Expected unknown key to be rejected")
	}
	if err := m.Register("Mouse9", nil); err == nil {
		t.Error("Expected unknown button to be rejected")
	}
	for _, chord := range []string{"Esc", "Control+Option+1", "cmd+q", "Mouse2+Mouse3", "Shift+F5"} {
		if err := m.Register(chord, func() {}); err != nil {
			t.Errorf("Expected %q to register, got %v", chord, err)
		}
	}
}

func TestChordFromHeldKeys(t *testing.T) {
	m := NewManager()
	fired := 0
	m.Register("Ctrl+Alt+1", func() { fired++ })

	m.FeedKeys(keyBatch(
		input.KeyEvent{Type: input.KeyPress, Code: native.KeyControl},
		input.KeyEvent{Type: input.KeyPress, Code: native.KeyOption},
		input.KeyEvent{Type: input.KeyPress, Code: native.Key1},
	))
	if fired != 1 {
		t.Fatalf("Expected hotkey to fire once, got %d", fired)
	}

	// Auto-repeat and releases do not fire again.
	m.FeedKeys(keyBatch(
		input.KeyEvent{Type: input.KeyPress, Code: native.Key1, Repeat: true},
		input.KeyEvent{Type: input.KeyRelease, Code: native.Key1},
		input.KeyEvent{Type: input.KeyRelease, Code: native.KeyOption},
		input.KeyEvent{Type: input.KeyPress, Code: native.Key1},
	))
	if fired != 1 {
		t.Errorf("Expected no further trigger, got %d", fired)
	}
}

func TestChordFromModifierBits(t *testing.T) {
	m := NewManager()
	fired := false
	m.Register("Ctrl+S", func() { fired = true })

	m.FeedKeys(keyBatch(input.KeyEvent{Type: input.KeyPress, Code: native.KeyS, Modifiers: native.ModCtrl}))
	if !fired {
		t.Error("Expected modifier bits to satisfy the chord")
	}
}

func TestMouseChord(t *testing.T) {
	m := NewManager()
	fired := 0
	m.Register("Mouse2+Mouse3", func() { fired++ })

	var b input.MouseBatch
	b.Events[0] = input.MouseEvent{Type: input.ButtonPress, Button: input.ButtonRight}
	b.Events[1] = input.MouseEvent{Type: input.Move, Button: input.ButtonNone}
	b.Events[2] = input.MouseEvent{Type: input.ButtonPress, Button: input.ButtonMiddle}
	b.Count = 3
	m.FeedMouse(&b)
	if fired != 1 {
		t.Errorf("Expected mouse chord to fire once, got %d", fired)
	}

	m.Clear()
	m.FeedMouse(&b)
	if fired != 1 {
		t.Errorf("Expected cleared manager not to fire, got %d", fired)
	}
}
