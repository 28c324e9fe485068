// Package ui holds the affordance state the rendering surface mirrors: busy
// buttons, visibility toggles, switches, and toasts. The package computes
// state; a websocket hub ships it to the page, which only renders.
//
// All mutators are idempotent: repeating a call that would not change state
// emits nothing, so orchestration code may set states freely on every exit
// path without flooding the page with duplicate events.
package ui

import "sync"

// EventSink receives typed UI events destined for the rendering surface.
type EventSink interface {
	Emit(eventType string, data any)
}

// NopSink discards events. Useful in tests and headless runs.
type NopSink struct{}

func (NopSink) Emit(string, any) {}

// ControlState is the renderable state of one interactive control.
type ControlState struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Busy     bool   `json:"busy"`
	Disabled bool   `json:"disabled"`
}

// Control is a button-like affordance with a busy/ready lifecycle.
type Control struct {
	mu    sync.Mutex
	state ControlState
	sink  EventSink
}

func NewControl(id, label string, sink EventSink) *Control {
	if sink == nil {
		sink = NopSink{}
	}
	return &Control{
		state: ControlState{ID: id, Label: label},
		sink:  sink,
	}
}

// SetBusy disables the control and replaces its label with a loading
// indicator. Calling it on an already-busy control is a no-op.
func (c *Control) SetBusy(busyLabel string) {
	c.apply(ControlState{ID: c.id(), Label: busyLabel, Busy: true, Disabled: true})
}

// SetReady re-enables the control and restores a ready label. Calling it on
// an already-ready control with the same label is a no-op.
func (c *Control) SetReady(readyLabel string) {
	c.apply(ControlState{ID: c.id(), Label: readyLabel})
}

func (c *Control) State() ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Control) id() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ID
}

func (c *Control) apply(next ControlState) {
	c.mu.Lock()
	if c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()
	c.sink.Emit("control", next)
}

// ToggleState is the renderable visibility of one page region.
type ToggleState struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

// Toggle shows or hides a page region (the search wrapper, the proxy test
// result block).
type Toggle struct {
	mu    sync.Mutex
	state ToggleState
	sink  EventSink
}

func NewToggle(id string, visible bool, sink EventSink) *Toggle {
	if sink == nil {
		sink = NopSink{}
	}
	return &Toggle{state: ToggleState{ID: id, Visible: visible}, sink: sink}
}

func (t *Toggle) SetVisible(visible bool) {
	t.mu.Lock()
	if t.state.Visible == visible {
		t.mu.Unlock()
		return
	}
	t.state.Visible = visible
	next := t.state
	t.mu.Unlock()
	t.sink.Emit("toggle", next)
}

func (t *Toggle) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Visible
}

// SwitchState is the renderable on/off state of a settings switch.
type SwitchState struct {
	ID string `json:"id"`
	On bool   `json:"on"`
}

// Switch mirrors a boolean settings flag into the page's switch widgets.
type Switch struct {
	mu    sync.Mutex
	state SwitchState
	sink  EventSink
}

func NewSwitch(id string, sink EventSink) *Switch {
	if sink == nil {
		sink = NopSink{}
	}
	return &Switch{state: SwitchState{ID: id}, sink: sink}
}

func (s *Switch) Set(on bool) {
	s.mu.Lock()
	if s.state.On == on {
		s.mu.Unlock()
		return
	}
	s.state.On = on
	next := s.state
	s.mu.Unlock()
	s.sink.Emit("switch", next)
}

func (s *Switch) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.On
}
