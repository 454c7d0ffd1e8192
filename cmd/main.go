// nativebridge - native input and window bridge
// Demo host: opens a window, polls keyboard and mouse batches once per frame
// and renders a gradient with a cursor marker.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"nativebridge/internal/app"
	"nativebridge/internal/config"
	"nativebridge/internal/hotkey"
	"nativebridge/internal/input"
	"nativebridge/internal/native"
	"nativebridge/internal/telemetry"
	"nativebridge/internal/tray"
	"nativebridge/internal/window"
)

var (
	version    = "0.1.0"
	backend    = flag.String("backend", "", "Toolkit backend: auto, terminal, win32, headless (overrides config)")
	configPath = flag.String("config", "", "Path to the configuration file")
	frames     = flag.Int("frames", 0, "Number of frames to run, 0 runs until the window closes")
	showVer    = flag.Bool("version", false, "Show version")
	testInput  = flag.Bool("test-input", false, "Log every polled input event")
	logPath    = flag.String("log", "", "Write the log to a file instead of stderr")
)

func init() {
	// Native toolkits expect the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("nativebridge version %s\n", version)
		return
	}

	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfgMgr, err := newConfigManager(*configPath)
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}
	if *backend != "" {
		cfgMgr.Get().Backend = *backend
	}

	if err := run(cfgMgr); err != nil {
		log.Fatalf("nativebridge: %v", err)
	}
}

func newConfigManager(path string) (*config.Manager, error) {
	if path != "" {
		return config.NewManagerAt(path), nil
	}
	return config.NewManager()
}

func run(cfgMgr *config.Manager) error {
	cfg := cfgMgr.Get()
	log.Printf("nativebridge %s starting (backend %s)", version, cfg.Backend)

	tk, err := native.Open(cfg.Backend)
	if err != nil {
		return err
	}

	opts := app.Options{
		MaxEventsPerPump: cfg.Input.MaxEventsPerPump,
		HalfExtent:       cfg.Input.GameHalfExtent,
		LogOverflow:      cfg.Input.LogOverflow,
	}
	var rec *telemetry.Recorder
	if cfg.TelemetryPath != "" {
		rec, err = telemetry.Open(cfg.TelemetryPath)
		if err != nil {
			log.Printf("Warning: telemetry disabled: %v", err)
		} else {
			opts.Recorder = rec
			defer closeRecorder(rec)
		}
	}

	shell := app.New(tk, opts)
	if err := shell.InitApplication(); err != nil {
		return err
	}
	defer shell.Close()

	width, height := int32(cfg.Window.Width), int32(cfg.Window.Height)
	win, err := shell.CreateWindow(window.Config{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
	})
	if err != nil {
		return err
	}
	shell.SetWindowDimensions(width, height)
	if err := shell.MakeApplicationVisible(); err != nil {
		log.Printf("Warning: failed to activate application: %v", err)
	}

	if cfg.Input.Keyboard {
		if err := shell.StartKeyboardMonitoring(); err != nil {
			log.Printf("Warning: keyboard monitoring unavailable: %v", err)
		}
	}
	if cfg.Input.Mouse {
		if err := shell.StartMouseMonitoring(); err != nil {
			log.Printf("Warning: mouse monitoring unavailable: %v", err)
		}
	}

	var quit, show atomic.Bool
	actions := map[string]func(){
		"quit": func() { quit.Store(true) },
		"show": func() { show.Store(true) },
	}

	hkMgr := hotkey.NewManager()
	bindHotkeys(hkMgr, cfg.Hotkeys, actions)

	// Reloads arrive off the UI thread; the frame loop applies them.
	var reloaded atomic.Pointer[config.Config]
	cfgMgr.RegisterChangeCallback(func() { reloaded.Store(cfgMgr.Get()) })

	if cfg.TrayEnabled {
		t := tray.New("nativebridge", "nativebridge "+version)
		t.AddMenuItem("Show", actions["show"])
		t.AddSeparator()
		t.AddMenuItem("Quit", actions["quit"])
		if err := t.Start(native.PumpsOSMessages(tk)); err != nil {
			log.Printf("Warning: tray disabled on the %s backend: %v", cfg.Backend, err)
		} else {
			defer t.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				if err := cfgMgr.Load(); err != nil {
					log.Printf("Warning: config reload failed: %v", err)
				}
				continue
			}
			log.Println("Shutting down...")
			quit.Store(true)
			return
		}
	}()

	scene := newScene(int(width), int(height))
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FrameRate))
	defer ticker.Stop()

	var (
		keys  input.KeyBatch
		mouse input.MouseBatch
	)
	for frame := 1; ; frame++ {
		if _, err := shell.ProcessEvents(); err != nil {
			return err
		}

		if c := reloaded.Swap(nil); c != nil {
			hkMgr.Clear()
			n := bindHotkeys(hkMgr, c.Hotkeys, actions)
			log.Printf("Config: reloaded, %d hotkeys bound", n)
		}

		if shell.PollKeyboardEventBatch(&keys) {
			hkMgr.FeedKeys(&keys)
			if *testInput {
				logKeys(&keys, shell.PressedKeys())
			}
		}
		if shell.PollMouseEventBatch(&mouse) {
			hkMgr.FeedMouse(&mouse)
			if *testInput {
				logMouse(&mouse)
			}
			scene.track(&mouse)
		}

		if show.Swap(false) {
			if err := shell.MakeApplicationVisible(); err != nil {
				log.Printf("Warning: failed to show application: %v", err)
			}
		}

		scene.render(shell.IsMouseButtonPressed(input.ButtonLeft))
		if err := shell.UpdateWindowPixels(win, scene.pix, width, height); err != nil {
			log.Printf("Warning: failed to present frame %d: %v", frame, err)
		}

		if shell.ShouldWindowClose(win) || quit.Load() {
			log.Printf("Window close requested after %d frames", frame)
			break
		}
		if *frames > 0 && frame >= *frames {
			break
		}
		<-ticker.C
	}

	return shell.DestroyWindow(win)
}

// bindHotkeys registers every chord whose action is known and returns how
// many were bound.
func bindHotkeys(hk *hotkey.Manager, chords map[string]string, actions map[string]func()) int {
	n := 0
	for action, chord := range chords {
		fn, ok := actions[action]
		if !ok {
			log.Printf("Warning: unknown hotkey action %q", action)
			continue
		}
		if err := hk.Register(chord, fn); err != nil {
			log.Printf("Warning: failed to register %s hotkey: %v", action, err)
			continue
		}
		n++
	}
	return n
}

func closeRecorder(rec *telemetry.Recorder) {
	if err := rec.Flush(); err == nil {
		if sums, err := rec.Summaries(); err == nil {
			for _, s := range sums {
				log.Printf("Telemetry: %s polls=%d events=%d dropped=%d overflows=%d",
					s.Device, s.Polls, s.Events, s.Dropped, s.Overflows)
			}
		}
	}
	if lost := rec.Lost(); lost > 0 {
		log.Printf("Telemetry: %d samples lost to a full queue", lost)
	}
	if err := rec.Close(); err != nil {
		log.Printf("Telemetry: close failed: %v", err)
	}
}

func keyName(code uint8) string {
	if name := native.KeyName(code); name != "" {
		return name
	}
	return fmt.Sprintf("0x%02X", code)
}

func logKeys(b *input.KeyBatch, held []uint8) {
	for _, ev := range b.Slice() {
		log.Printf("[key] %-7s %-9s mods=%04b repeat=%v t=%v", ev.Type, keyName(ev.Code), ev.Modifiers, ev.Repeat, ev.Timestamp)
	}
	if b.Overflow {
		log.Printf("[key] overflow, %d dropped", b.Dropped)
	}
	if len(held) > 0 {
		names := make([]string, len(held))
		for i, code := range held {
			names[i] = keyName(code)
		}
		log.Printf("[key] held: %s", strings.Join(names, " "))
	}
}

func logMouse(b *input.MouseBatch) {
	for _, ev := range b.Slice() {
		log.Printf("[mouse] %-14s %-6s win=(%.0f,%.0f) game=(%.2f,%.2f) delta=(%.0f,%.0f) scroll=(%.1f,%.1f)",
			ev.Type, ev.Button, ev.WindowX, ev.WindowY, ev.GameX, ev.GameY,
			ev.DeltaX, ev.DeltaY, ev.ScrollDeltaX, ev.ScrollDeltaY)
	}
	if b.Overflow {
		log.Printf("[mouse] overflow, %d dropped", b.Dropped)
	}
}
