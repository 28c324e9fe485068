// Package session turns user input (magnet link, torrent URL, uploaded
// file, demo shortcut) into an attached playback: it creates a backend
// session, derives the playable tracks from the file listing, and hands
// them to the player. Every entry point funnels into the same submission
// workflow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"torrentstream/webclient/internal/api"
	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/metrics"
	"torrentstream/webclient/internal/ui"
)

// SubmissionState represents the FSM state of one playback submission.
type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionValidating
	SubmissionCreatingSession // Waiting for the backend to resolve the magnet
	SubmissionListingFiles    // Fetching the session's file listing
	SubmissionReady           // Playback attached
	SubmissionFailed          // Terminal failure
)

var submissionStateNames = [...]string{
	"idle", "validating", "creating_session",
	"listing_files", "ready", "failed",
}

func (s SubmissionState) String() string {
	if int(s) < len(submissionStateNames) {
		return submissionStateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

const demoMagnet = "magnet:?xt=urn:btih:08ada5a7a6183aae1e09d831df6748d566095a10" +
	"&dn=Sintel" +
	"&tr=udp%3A%2F%2Fexplodie.org%3A6969" +
	"&tr=udp%3A%2F%2Ftracker.coppersurfer.tk%3A6969" +
	"&tr=udp%3A%2F%2Ftracker.empire-js.us%3A1337" +
	"&tr=udp%3A%2F%2Ftracker.leechers-paradise.org%3A6969" +
	"&tr=udp%3A%2F%2Ftracker.opentrackr.org%3A1337"

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	AddTorrent(ctx context.Context, magnet string) (string, error)
	ListFiles(ctx context.Context, sessionID string) ([]domain.TorrentFile, error)
}

// Converter turns an uploaded .torrent file into a magnet link.
type Converter interface {
	ToMagnet(ctx context.Context, filename string, contents []byte) (string, error)
}

// Playback is everything the player needs to render one session. When
// Sources holds more than one entry the player renders a source selector.
type Playback struct {
	SessionID string                 `json:"sessionId"`
	Sources   []domain.VideoSource   `json:"sources"`
	Active    int                    `json:"active"`
	Subtitles []domain.SubtitleTrack `json:"subtitles"`
}

// Player is the single playback slot. Attach replaces whatever is showing;
// Teardown detaches without a replacement.
type Player interface {
	Attach(playback Playback)
	Teardown()
}

// Orchestrator owns the submission workflow and the player slot. Each
// submission gets a sequence number at start; only the latest submission
// may attach its result, late completions are discarded.
type Orchestrator struct {
	backend   Backend
	converter Converter
	player    Player
	notifier  ui.Notifier
	logger    *slog.Logger

	seq atomic.Uint64

	mu       sync.Mutex
	state    SubmissionState
	current  Playback
	attached bool
}

func NewOrchestrator(backend Backend, converter Converter, player Player, notifier ui.Notifier, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend:   backend,
		converter: converter,
		player:    player,
		notifier:  notifier,
		logger:    logger,
	}
}

// State returns the FSM state of the most recent submission.
func (o *Orchestrator) State() SubmissionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs the full playback workflow for one magnet or torrent URL.
// The control, when given, is held busy for the duration and restored to
// readyLabel on every exit path.
func (o *Orchestrator) Submit(ctx context.Context, magnet string, control *ui.Control, readyLabel string) bool {
	seq := o.seq.Add(1)
	o.transition(seq, SubmissionValidating)

	if strings.TrimSpace(magnet) == "" {
		o.notifier.Error("Please enter a magnet link or URL")
		o.finish(seq, SubmissionFailed, "invalid")
		return false
	}

	// The newest submission claims the player slot up front. In-flight
	// older submissions keep running and are discarded at completion.
	o.player.Teardown()
	o.detach()

	busy(control)
	defer ready(control, readyLabel)

	o.transition(seq, SubmissionCreatingSession)
	started := time.Now()
	sessionID, err := o.backend.AddTorrent(ctx, magnet)
	metrics.SubmissionStageDuration.WithLabelValues("create_session").Observe(time.Since(started).Seconds())
	if err != nil {
		o.notifier.Error(api.UserMessage(err))
		o.finish(seq, SubmissionFailed, "error")
		return false
	}

	o.transition(seq, SubmissionListingFiles)
	started = time.Now()
	files, err := o.backend.ListFiles(ctx, sessionID)
	metrics.SubmissionStageDuration.WithLabelValues("list_files").Observe(time.Since(started).Seconds())
	if err != nil {
		o.notifier.Error(api.UserMessage(err))
		o.finish(seq, SubmissionFailed, "error")
		return false
	}

	videos, subtitles := partitionFiles(files)
	if len(videos) == 0 {
		o.notifier.Error("No video file found")
		o.finish(seq, SubmissionFailed, "no_video")
		return false
	}

	playback := Playback{
		SessionID: sessionID,
		Sources:   buildVideoSources(sessionID, videos),
		Subtitles: buildSubtitleTracks(sessionID, subtitles),
	}

	if !o.isLatest(seq) {
		metrics.StaleCompletionsTotal.Inc()
		metrics.SubmissionsTotal.WithLabelValues("stale").Inc()
		o.logger.Info("discarding stale submission",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", o.seq.Load()),
			slog.String("sessionId", sessionID))
		return false
	}

	o.attach(playback)
	o.transition(seq, SubmissionReady)
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()
	o.logger.Info("playback attached",
		slog.String("sessionId", sessionID),
		slog.Int("videos", len(videos)),
		slog.Int("subtitles", len(subtitles)))
	return true
}

// SubmitTorrentFile converts an uploaded file and funnels into Submit.
// Non-.torrent uploads are rejected before anything reaches the network.
func (o *Orchestrator) SubmitTorrentFile(ctx context.Context, filename string, contents []byte, control *ui.Control, readyLabel string) bool {
	magnet, err := o.converter.ToMagnet(ctx, filename, contents)
	if err != nil {
		if errors.Is(err, domain.ErrNotTorrentFile) {
			o.notifier.Error("Please drop a .torrent file")
		} else {
			o.notifier.Error(api.UserMessage(err))
		}
		return false
	}
	return o.Submit(ctx, magnet, control, readyLabel)
}

// Demo plays the bundled open-movie magnet through the normal workflow.
func (o *Orchestrator) Demo(ctx context.Context, control *ui.Control, readyLabel string) bool {
	return o.Submit(ctx, demoMagnet, control, readyLabel)
}

// SelectSource switches the active source of the attached playback. The
// player re-attaches with the same session and track list.
func (o *Orchestrator) SelectSource(index int) bool {
	o.mu.Lock()
	if !o.attached || index < 0 || index >= len(o.current.Sources) {
		o.mu.Unlock()
		return false
	}
	o.current.Active = index
	playback := o.current
	o.mu.Unlock()

	o.player.Attach(playback)
	return true
}

// Current returns the attached playback, if any.
func (o *Orchestrator) Current() (Playback, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.attached
}

func (o *Orchestrator) attach(playback Playback) {
	o.mu.Lock()
	o.current = playback
	o.attached = true
	o.mu.Unlock()
	o.player.Attach(playback)
}

func (o *Orchestrator) detach() {
	o.mu.Lock()
	o.current = Playback{}
	o.attached = false
	o.mu.Unlock()
}

func (o *Orchestrator) isLatest(seq uint64) bool {
	return o.seq.Load() == seq
}

// transition applies a state change for the given submission. Submissions
// that are no longer the latest stop publishing state.
func (o *Orchestrator) transition(seq uint64, next SubmissionState) {
	if !o.isLatest(seq) {
		return
	}
	o.mu.Lock()
	from := o.state
	o.state = next
	o.mu.Unlock()
	o.logger.Debug("submission state transition",
		slog.Uint64("seq", seq),
		slog.String("from", from.String()),
		slog.String("to", next.String()))
}

func (o *Orchestrator) finish(seq uint64, state SubmissionState, outcome string) {
	o.transition(seq, state)
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func busy(control *ui.Control) {
	if control != nil {
		control.SetBusy("")
	}
}

func ready(control *ui.Control, label string) {
	if control != nil {
		control.SetReady(label)
	}
}
