package native

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	tk := NewTerminal(screen)
	if err := tk.Init(); err != nil {
		t.Fatalf("init terminal: %v", err)
	}
	t.Cleanup(tk.Shutdown)
	screen.SetSize(20, 6)
	tk.Pump(0)
	return tk, screen
}

func TestTerminalKeyPressSynthesizesRelease(t *testing.T) {
	tk, screen := newSimTerminal(t)

	var got []Event
	tk.AddMonitor(KeyboardEvents, func(ev Event) { got = append(got, ev) })

	screen.InjectKey(tcell.KeyRune, 'W', tcell.ModNone)
	screen.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	tk.Pump(0)

	if len(got) != 4 {
		t.Fatalf("Expected 4 key events, got %d", len(got))
	}
	if got[0].Kind != KeyDown || got[1].Kind != KeyUp {
		t.Errorf("Expected down/up pair, got %v/%v", got[0].Kind, got[1].Kind)
	}
	if got[0].Code != KeyW || got[0].Modifiers&ModShift == 0 {
		t.Errorf("Expected shifted W, got code 0x%X mods %b", got[0].Code, got[0].Modifiers)
	}
	if got[2].Code != KeyArrowUp {
		t.Errorf("Expected arrow up, got 0x%X", got[2].Code)
	}
	if got[2].Time < got[0].Time {
		t.Errorf("Expected non-decreasing timestamps, got %v then %v", got[0].Time, got[2].Time)
	}
}

func TestTerminalCtrlQRequestsClose(t *testing.T) {
	tk, screen := newSimTerminal(t)

	win, err := tk.CreateWindow(WindowOptions{Width: 200, Height: 100, Title: "demo"})
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	keys := 0
	tk.AddMonitor(KeyboardEvents, func(Event) { keys++ })

	screen.InjectKey(tcell.KeyCtrlQ, 'q', tcell.ModCtrl)
	tk.Pump(0)

	if !win.CloseRequested() {
		t.Error("Expected Ctrl+Q to request close")
	}
	if keys != 0 {
		t.Errorf("Expected Ctrl+Q to be consumed, got %d key events", keys)
	}
}

func TestTerminalMouseButtonsAndWheel(t *testing.T) {
	tk, screen := newSimTerminal(t)

	if _, err := tk.CreateWindow(WindowOptions{Width: 200, Height: 100, Title: "demo"}); err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	var got []Event
	tk.AddMonitor(MouseEvents, func(ev Event) { got = append(got, ev) })

	screen.InjectMouse(0, 1, tcell.ButtonNone, tcell.ModNone)
	screen.InjectMouse(10, 3, tcell.ButtonNone, tcell.ModNone)
	screen.InjectMouse(10, 3, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(10, 3, tcell.ButtonNone, tcell.ModNone)
	screen.InjectMouse(10, 3, tcell.WheelUp, tcell.ModNone)
	tk.Pump(0)

	wantKinds := []EventKind{MouseEnter, MouseMove, MouseDown, MouseUp, Scroll}
	if len(got) != len(wantKinds) {
		t.Fatalf("Expected %d mouse events, got %d: %+v", len(wantKinds), len(got), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("Event %d: expected %v, got %v", i, k, got[i].Kind)
		}
	}
	if got[2].Button != ButtonLeft {
		t.Errorf("Expected left button, got %v", got[2].Button)
	}
	if got[4].ScrollY != 1 {
		t.Errorf("Expected scroll up, got %v", got[4].ScrollY)
	}

	// 20 columns over 200 pixels, 5 content rows over 100 pixels.
	if got[1].X != 105 || got[1].Y != 50 {
		t.Errorf("Expected window position (105, 50), got (%v, %v)", got[1].X, got[1].Y)
	}
}

func TestTerminalDrawsFrontWindow(t *testing.T) {
	tk, screen := newSimTerminal(t)

	win, err := tk.CreateWindow(WindowOptions{Width: 8, Height: 8, Title: "pixels"})
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 255
		img.Pix[i+3] = 255
	}
	if err := win.SetPixels(img); err != nil {
		t.Fatalf("SetPixels failed: %v", err)
	}
	tk.Pump(0)

	cells, width, _ := screen.GetContents()
	title := ""
	for x := 0; x < len("pixels"); x++ {
		title += string(cells[x].Runes[0])
	}
	if title != "pixels" {
		t.Errorf("Expected title row %q, got %q", "pixels", title)
	}

	cell := cells[1*width+3]
	if len(cell.Runes) == 0 || cell.Runes[0] != '▀' {
		t.Fatalf("Expected half block in content area, got %v", cell.Runes)
	}
	fg, bg, _ := cell.Style.Decompose()
	r, g, _ := fg.RGB()
	if r < 200 || g > 50 {
		t.Errorf("Expected red foreground, got %v", fg)
	}
	r, _, _ = bg.RGB()
	if r < 200 {
		t.Errorf("Expected red background, got %v", bg)
	}
}

func TestTerminalFrameIsSnapshot(t *testing.T) {
	tk, _ := newSimTerminal(t)

	win, err := tk.CreateWindow(WindowOptions{Width: 4, Height: 4, Title: "snap"})
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Pix[0] = 10
	win.SetPixels(img)
	img.Pix[0] = 99

	frame, _, dirty := win.(*termWindow).take()
	if !dirty || frame.Pix[0] != 10 {
		t.Errorf("Expected published frame to keep 10, got %d (dirty %v)", frame.Pix[0], dirty)
	}
	if frame == img {
		t.Error("Expected a private copy of the caller's image")
	}
}

func TestTerminalSetPixelsWhileDrawing(t *testing.T) {
	tk, _ := newSimTerminal(t)

	win, err := tk.CreateWindow(WindowOptions{Width: 32, Height: 32, Title: "race"})
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			for p := range img.Pix {
				img.Pix[p] = uint8(i)
			}
			if err := win.SetPixels(img); err != nil {
				t.Errorf("SetPixels failed: %v", err)
				return
			}
		}
	}()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		tk.Pump(0)
	}
	close(done)
	wg.Wait()
}

func TestTerminalPumpCountsDeliveredEvents(t *testing.T) {
	tk, screen := newSimTerminal(t)

	delivered := 0
	tk.AddMonitor(KeyboardEvents, func(Event) { delivered++ })

	for _, r := range "abc" {
		screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	if n := tk.Pump(2); n != 2 || delivered != 2 {
		t.Errorf("Expected one key pair from Pump(2), got %d (delivered %d)", n, delivered)
	}
	if n := tk.Pump(0); n != 4 || delivered != 6 {
		t.Errorf("Expected remaining 4 events, got %d (delivered %d)", n, delivered)
	}
}
