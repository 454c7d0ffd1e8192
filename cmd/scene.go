package main

import "nativebridge/internal/input"

const markerSize = 6

// scene is the demo content: a gradient with a square at the pointer.
type scene struct {
	width, height int
	pix           []byte

	cursorX, cursorY int
	inside           bool
	shade            uint8
}

func newScene(width, height int) *scene {
	return &scene{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*4),
	}
}

// track follows the pointer and nudges the shade on scroll.
func (s *scene) track(b *input.MouseBatch) {
	for _, ev := range b.Slice() {
		switch ev.Type {
		case input.ExitWindow:
			s.inside = false
			continue
		case input.Scroll:
			s.shade += uint8(int8(ev.ScrollDeltaY * 8))
		}
		s.cursorX, s.cursorY = int(ev.WindowX), int(ev.WindowY)
		s.inside = true
	}
}

func (s *scene) render(pressed bool) {
	for y := 0; y < s.height; y++ {
		row := s.pix[y*s.width*4 : (y+1)*s.width*4]
		g := uint8(y * 255 / s.height)
		for x := 0; x < s.width; x++ {
			o := x * 4
			row[o+0] = uint8(x * 255 / s.width)
			row[o+1] = g
			row[o+2] = 96 + s.shade
			row[o+3] = 0xFF
		}
	}
	if !s.inside {
		return
	}

	c := byte(0xFF)
	if pressed {
		c = 0x20
	}
	for y := s.cursorY - markerSize/2; y < s.cursorY+markerSize/2; y++ {
		if y < 0 || y >= s.height {
			continue
		}
		for x := s.cursorX - markerSize/2; x < s.cursorX+markerSize/2; x++ {
			if x < 0 || x >= s.width {
				continue
			}
			o := (y*s.width + x) * 4
			s.pix[o+0], s.pix[o+1], s.pix[o+2] = c, c, c
		}
	}
}
