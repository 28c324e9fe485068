package session

import (
	"log/slog"

	"torrentstream/webclient/internal/ui"
)

type playerEvent struct {
	Action   string    `json:"action"`
	Playback *Playback `json:"playback,omitempty"`
}

// SinkPlayer drives the page's video element through UI events: one
// "player" event per attach or teardown.
type SinkPlayer struct {
	sink   ui.EventSink
	logger *slog.Logger
}

func NewSinkPlayer(sink ui.EventSink, logger *slog.Logger) *SinkPlayer {
	if sink == nil {
		sink = ui.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SinkPlayer{sink: sink, logger: logger}
}

func (p *SinkPlayer) Attach(playback Playback) {
	p.sink.Emit("player", playerEvent{Action: "attach", Playback: &playback})
}

func (p *SinkPlayer) Teardown() {
	p.sink.Emit("player", playerEvent{Action: "teardown"})
}

var _ Player = (*SinkPlayer)(nil)
