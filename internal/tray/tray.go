// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"errors"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// ErrNoEventLoop is returned by Start when the host does not pump the native
// message loop the tray icon is registered with.
var ErrNoEventLoop = errors.New("host does not pump a native event loop")

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu.
//
// Menu callbacks run on systray goroutines, not on the UI thread.
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	ready   bool
	quitCh  chan struct{}
	once    sync.Once
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray. Items must be added before the
// tray is started.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// Items returns the number of menu entries, separators included
func (t *Tray) Items() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil || t.items[id].item == nil {
		return
	}
	if checked {
		t.items[id].item.Check()
	} else {
		t.items[id].item.Uncheck()
	}
}

// Start registers the tray with the native event loop of the calling thread.
// pumped reports whether the host drains that loop; the icon and its menu
// only work when it does.
func (t *Tray) Start(pumped bool) error {
	if !pumped {
		return ErrNoEventLoop
	}
	systray.Register(t.setupMenu, t.onExit)
	return nil
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(getIcon())

	t.mu.Lock()
	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		menuItem.item = systray.AddMenuItem(menuItem.Title, "")
		if menuItem.Callback != nil {
			go t.watch(menuItem)
		}
	}
	t.ready = true
	n := len(t.items)
	t.mu.Unlock()

	log.Printf("Tray: ready with %d items", n)
}

func (t *Tray) watch(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			mi.Callback()
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tray) onExit() {
	t.once.Do(func() { close(t.quitCh) })
}

// Stop stops the tray
func (t *Tray) Stop() {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.Quit()
	}
	t.onExit()
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	// 16x16 32-bit ICO: header, directory entry, DIB header, pixels and mask
	icon := make([]byte, 1118)
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00, // 1024 pixels + 40 header + 32 mask
		0x16, 0x00, 0x00, 0x00,
	})
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00, // 16 * 2 for icon
		0x01, 0x00,
		0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00,
	})
	// Opaque white outline of a key cap; pixel rows are stored bottom-up in BGRA
	for y := 2; y < 14; y++ {
		for x := 1; x < 15; x++ {
			if y != 2 && y != 13 && x != 1 && x != 14 {
				continue
			}
			off := 62 + (y*16+x)*4
			copy(icon[off:off+4], []byte{0xFF, 0xFF, 0xFF, 0xFF})
		}
	}
	return icon
}
