package tray

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestMenuItems(t *testing.T) {
	tr := New("nativebridge", "Native input bridge")
	show := tr.AddMenuItem("Show", func() {})
	tr.AddSeparator()
	quit := tr.AddMenuItem("Quit", func() {})

	if show != 0 || quit != 2 {
		t.Errorf("Expected ids 0 and 2, got %d and %d", show, quit)
	}
	if tr.Items() != 3 {
		t.Errorf("Expected 3 entries, got %d", tr.Items())
	}

	// Not started yet, must not panic.
	tr.SetItemChecked(show, true)
	tr.SetItemChecked(1, true)
	tr.SetItemChecked(42, true)
}

func TestStopBeforeStart(t *testing.T) {
	tr := New("a", "b")
	tr.Stop()
	tr.Stop()
	select {
	case <-tr.quitCh:
	default:
		t.Error("Expected quit channel to be closed")
	}
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	if binary.LittleEndian.Uint16(icon[2:4]) != 1 {
		t.Errorf("Expected ICO type 1, got %d", binary.LittleEndian.Uint16(icon[2:4]))
	}
	size := binary.LittleEndian.Uint32(icon[14:18])
	offset := binary.LittleEndian.Uint32(icon[18:22])
	if int(size+offset) != len(icon) {
		t.Errorf("Expected image data to end at %d, got %d", len(icon), size+offset)
	}
}

func TestStartWithoutEventLoop(t *testing.T) {
	tr := New("a", "b")
	tr.AddMenuItem("Quit", func() {})

	if err := tr.Start(false); !errors.Is(err, ErrNoEventLoop) {
		t.Fatalf("Expected ErrNoEventLoop, got %v", err)
	}
	if tr.ready {
		t.Error("Expected menu not to be built")
	}
	tr.Stop()
}
