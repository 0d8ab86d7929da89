// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Wheel  int
	Button uint8
}

// Input collects the events of one frame and tracks held keys.
type Input struct {
	events  []Event
	held    map[sdl.Scancode]bool
	buttons map[uint8]bool

	// accumulated per frame
	mouseDX int
	mouseDY int
	wheel   int
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		held:    make(map[sdl.Scancode]bool),
		buttons: make(map[uint8]bool),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			quit = true
		}
	}
	return quit
}

// BeginFrame drops the events and motion of the previous frame.
func (i *Input) BeginFrame() {
	i.events = i.events[:0]
	i.mouseDX, i.mouseDY, i.wheel = 0, 0, 0
}

func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		key := e.Keysym.Scancode
		switch e.Type {
		case sdl.KEYDOWN:
			i.held[key] = true
			if e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: key})
			}
		case sdl.KEYUP:
			delete(i.held, key)
			i.events = append(i.events, Event{Type: EventKeyUp, Key: key})
		}

	case *sdl.MouseMotionEvent:
		i.mouseDX += int(e.XRel)
		i.mouseDY += int(e.YRel)
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		ev := Event{
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}
		if e.Type == sdl.MOUSEBUTTONDOWN {
			i.buttons[e.Button] = true
			ev.Type = EventMouseDown
		} else {
			delete(i.buttons, e.Button)
			ev.Type = EventMouseUp
		}
		i.events = append(i.events, ev)

	case *sdl.MouseWheelEvent:
		i.wheel += int(e.Y)
		i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: int(e.Y)})
	}
	return false
}

// Events returns the events collected since BeginFrame.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyHeld reports whether a key is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// IsButtonHeld reports whether a mouse button is currently down.
func (i *Input) IsButtonHeld(button uint8) bool {
	return i.buttons[button]
}

// MouseDelta returns the relative mouse motion since BeginFrame.
func (i *Input) MouseDelta() (dx, dy int) {
	return i.mouseDX, i.mouseDY
}

// Wheel returns the wheel ticks since BeginFrame.
func (i *Input) Wheel() int {
	return i.wheel
}
