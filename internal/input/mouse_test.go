package input

import (
	"testing"

	"nativebridge/internal/native"
	"nativebridge/internal/viewport"
)

func newMouse(t *testing.T) (*Mouse, *native.Headless) {
	t.Helper()
	tk := native.NewHeadless()
	if err := tk.Init(); err != nil {
		t.Fatalf("init headless: %v", err)
	}
	t.Cleanup(tk.Shutdown)
	m := NewMouse(tk, viewport.New(viewport.DefaultHalfExtent))
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return m, tk
}

func TestMouseGameCoordinates(t *testing.T) {
	m, tk := newMouse(t)
	if !m.SetWindowDimensions(800, 600) {
		t.Fatal("Expected 800x600 to be accepted")
	}

	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 400, Y: 300})
	m.SetWindowDimensions(400, 300)
	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 400, Y: 300})

	var out MouseBatch
	m.Poll(&out)
	if out.Count != 2 {
		t.Fatalf("Expected 2 events, got %d", out.Count)
	}
	if out.Events[0].GameX != 0 || out.Events[0].GameY != 0 {
		t.Errorf("Expected centre to map to origin, got (%v, %v)", out.Events[0].GameX, out.Events[0].GameY)
	}
	if out.Events[1].GameX != 10 || out.Events[1].GameY != -10 {
		t.Errorf("Expected corner after resize, got (%v, %v)", out.Events[1].GameX, out.Events[1].GameY)
	}
	if out.Events[0].WindowX != 400 || out.Events[0].WindowY != 300 {
		t.Errorf("Expected window position to be kept, got (%v, %v)", out.Events[0].WindowX, out.Events[0].WindowY)
	}
}

func TestMouseDeltas(t *testing.T) {
	m, tk := newMouse(t)

	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 10, Y: 10})
	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 15, Y: 7})
	tk.Dispatch(native.Event{Kind: native.MouseDown, X: 15, Y: 7, Button: native.ButtonLeft})
	tk.Dispatch(native.Event{Kind: native.MouseDrag, X: 20, Y: 7, Button: native.ButtonLeft})

	var out MouseBatch
	m.Poll(&out)
	want := []struct {
		typ    MouseEventType
		dx, dy float32
	}{
		{Move, 0, 0},
		{Move, 5, -3},
		{ButtonPress, 0, 0},
		{Move, 5, 0},
	}
	if out.Count != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), out.Count)
	}
	for i, w := range want {
		ev := out.Events[i]
		if ev.Type != w.typ || ev.DeltaX != w.dx || ev.DeltaY != w.dy {
			t.Errorf("Event %d: expected %v (%v, %v), got %v (%v, %v)", i, w.typ, w.dx, w.dy, ev.Type, ev.DeltaX, ev.DeltaY)
		}
	}

	// A restarted session forgets the last position.
	m.Stop()
	m.Start()
	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 100, Y: 100})
	m.Poll(&out)
	if out.Count != 1 || out.Events[0].DeltaX != 0 || out.Events[0].DeltaY != 0 {
		t.Errorf("Expected zero delta after restart, got %+v", out.Events[0])
	}
}

func TestMouseButtonsAndScroll(t *testing.T) {
	m, tk := newMouse(t)

	tk.Dispatch(native.Event{Kind: native.MouseEnter, X: 1, Y: 1})
	tk.Dispatch(native.Event{Kind: native.MouseDown, Button: native.ButtonRight, Modifiers: native.ModShift})
	if !m.IsButtonPressed(ButtonRight) {
		t.Error("Expected right button to be held")
	}
	tk.Dispatch(native.Event{Kind: native.MouseUp, Button: native.ButtonRight})
	tk.Dispatch(native.Event{Kind: native.Scroll, ScrollX: -1, ScrollY: 2})
	tk.Dispatch(native.Event{Kind: native.MouseExit})

	var out MouseBatch
	m.Poll(&out)
	if out.Count != 5 {
		t.Fatalf("Expected 5 events, got %d", out.Count)
	}
	if out.Events[0].Type != EnterWindow || out.Events[4].Type != ExitWindow {
		t.Errorf("Expected enter/exit framing, got %v/%v", out.Events[0].Type, out.Events[4].Type)
	}
	press := out.Events[1]
	if press.Type != ButtonPress || press.Button != ButtonRight || !press.IsPressed || press.Modifiers != ModShift {
		t.Errorf("Unexpected press event: %+v", press)
	}
	rel := out.Events[2]
	if rel.Type != ButtonRelease || rel.IsPressed {
		t.Errorf("Unexpected release event: %+v", rel)
	}
	scroll := out.Events[3]
	if scroll.ScrollDeltaX != -1 || scroll.ScrollDeltaY != 2 || scroll.DeltaX != 0 {
		t.Errorf("Unexpected scroll event: %+v", scroll)
	}
	if out.Events[0].Button != ButtonNone {
		t.Errorf("Expected no button on enter, got %v", out.Events[0].Button)
	}
	if m.IsButtonPressed(ButtonRight) {
		t.Error("Expected right button to be released")
	}
}

func TestMouseMoveStormOverflows(t *testing.T) {
	m, tk := newMouse(t)
	for i := 0; i < 100; i++ {
		tk.Post(native.Event{Kind: native.MouseMove, X: float32(i), Y: 0})
	}
	tk.Pump(0)

	var out MouseBatch
	m.Poll(&out)
	if out.Count != BatchCapacity || !out.Overflow || out.Dropped != 92 {
		t.Errorf("Expected 8 events and 92 dropped, got %d/%v/%d", out.Count, out.Overflow, out.Dropped)
	}
	if out.Events[7].WindowX != 7 {
		t.Errorf("Expected the eighth move to be kept, got x=%v", out.Events[7].WindowX)
	}
}

func TestMouseWithoutViewport(t *testing.T) {
	tk := native.NewHeadless()
	m := NewMouse(tk, nil)
	if m.Viewport().HalfExtent() != viewport.DefaultHalfExtent {
		t.Errorf("Expected default viewport, got half extent %v", m.Viewport().HalfExtent())
	}
	m.Start()
	tk.Dispatch(native.Event{Kind: native.MouseMove, X: 50, Y: 50})

	var out MouseBatch
	m.Poll(&out)
	if out.Events[0].GameX != 0 || out.Events[0].GameY != 0 {
		t.Errorf("Expected origin without dimensions, got (%v, %v)", out.Events[0].GameX, out.Events[0].GameY)
	}
}
