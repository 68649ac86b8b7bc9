// Package input turns SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies an Event.
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

// Event is a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Repeat bool
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // relative motion, or wheel steps
	DeltaY int
	Button uint8
}

// Translate converts an SDL event. It reports false for events the viewer
// ignores.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		ev := Event{Type: EventKeyDown, Key: e.Keysym.Scancode, Repeat: e.Repeat != 0}
		if e.Type == sdl.KEYUP {
			ev.Type = EventKeyUp
		}
		return ev, true

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		ev := Event{Type: EventMouseDown, MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
		if e.Type == sdl.MOUSEBUTTONUP {
			ev.Type = EventMouseUp
		}
		return ev, true

	case *sdl.MouseWheelEvent:
		ev := Event{Type: EventMouseWheel, DeltaX: int(e.X), DeltaY: int(e.Y)}
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			ev.DeltaX, ev.DeltaY = -ev.DeltaX, -ev.DeltaY
		}
		return ev, true
	}
	return Event{}, false
}

// Input collects the events of one frame and tracks held mouse buttons.
type Input struct {
	events  []Event
	buttons map[uint8]bool
}

// New creates an input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		buttons: make(map[uint8]bool),
	}
}

// Update polls SDL events. It returns true when the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.Push(event) {
			quit = true
		}
	}
	return quit
}

// Push records one SDL event and reports whether it requests quitting.
func (i *Input) Push(event sdl.Event) bool {
	ev, ok := Translate(event)
	if !ok {
		return false
	}
	switch ev.Type {
	case EventMouseDown:
		i.buttons[ev.Button] = true
	case EventMouseUp:
		delete(i.buttons, ev.Button)
	}
	i.events = append(i.events, ev)
	return ev.Type == EventQuit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether scancode went down this frame, ignoring
// key repeat.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode && !e.Repeat {
			return true
		}
	}
	return false
}

// ButtonHeld reports whether a mouse button is currently down.
func (i *Input) ButtonHeld(button uint8) bool {
	return i.buttons[button]
}

// ButtonPressed returns the position of the first press of button this
// frame.
func (i *Input) ButtonPressed(button uint8) (x, y int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventMouseDown && e.Button == button {
			return e.MouseX, e.MouseY, true
		}
	}
	return 0, 0, false
}

// MouseDelta sums the relative motion of this frame.
func (i *Input) MouseDelta() (dx, dy int) {
	for _, e := range i.events {
		if e.Type == EventMouseMove {
			dx += e.DeltaX
			dy += e.DeltaY
		}
	}
	return dx, dy
}

// Wheel sums the vertical wheel steps of this frame.
func (i *Input) Wheel() int {
	n := 0
	for _, e := range i.events {
		if e.Type == EventMouseWheel {
			n += e.DeltaY
		}
	}
	return n
}

// Resized returns the last window size reported this frame.
func (i *Input) Resized() (width, height int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			width, height, ok = e.Width, e.Height, true
		}
	}
	return width, height, ok
}
