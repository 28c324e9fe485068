// Package apihttp exposes the orchestration layer to the page: playback
// submission, search, and settings endpoints, plus the websocket feed that
// pushes UI state back.
package apihttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/search"
	"torrentstream/webclient/internal/session"
	"torrentstream/webclient/internal/ui"
)

const (
	playLabel  = "Play Now"
	watchLabel = "Watch"

	playbackErrorMessage = "Something went wrong"

	maxUploadBytes = 10 << 20
	maxQueryLength = 500
)

type PlaybackService interface {
	Submit(ctx context.Context, magnet string, control *ui.Control, readyLabel string) bool
	SubmitTorrentFile(ctx context.Context, filename string, contents []byte, control *ui.Control, readyLabel string) bool
	Demo(ctx context.Context, control *ui.Control, readyLabel string) bool
	SelectSource(index int) bool
	Current() (session.Playback, bool)
}

type SearchService interface {
	Search(ctx context.Context, query string) bool
	Result(index int) (domain.SearchResult, bool)
	CurrentPage() search.Page
	GoToPage(n int) search.Page
	NextPage() search.Page
	PrevPage() search.Page
}

type SettingsService interface {
	Snapshot() domain.Settings
	TestProxy(ctx context.Context, group domain.ProxySettings) bool
	TestProwlarr(ctx context.Context, group domain.ProwlarrSettings) bool
	TestJackett(ctx context.Context, group domain.JackettSettings) bool
	SaveProxy(ctx context.Context, group domain.ProxySettings) bool
	SaveProwlarr(ctx context.Context, group domain.ProwlarrSettings) bool
	SaveJackett(ctx context.Context, group domain.JackettSettings) bool
}

type Server struct {
	playback PlaybackService
	search   SearchService
	settings SettingsService
	hub      *ui.Hub
	sink     ui.EventSink
	notifier ui.Notifier
	logger   *slog.Logger

	playControl *ui.Control
	demoControl *ui.Control
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHub mounts the websocket feed and backs dynamically created controls.
func WithHub(hub *ui.Hub) ServerOption {
	return func(s *Server) {
		s.hub = hub
		s.sink = hub
	}
}

// WithNotifier routes page-reported failures through the shared toast channel.
func WithNotifier(notifier ui.Notifier) ServerOption {
	return func(s *Server) {
		s.notifier = notifier
	}
}

// WithPlaybackControls binds the two fixed submission controls.
func WithPlaybackControls(play, demo *ui.Control) ServerOption {
	return func(s *Server) {
		s.playControl = play
		s.demoControl = demo
	}
}

func NewServer(playback PlaybackService, searchService SearchService, settingsService SettingsService, options ...ServerOption) *Server {
	server := &Server{
		playback: playback,
		search:   searchService,
		settings: settingsService,
		sink:     ui.NopSink{},
		logger:   slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.notifier == nil {
		server.notifier = ui.NewNotifier(server.sink, server.logger)
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}
	mux.HandleFunc("/app/playback", s.handlePlayback)
	mux.HandleFunc("/app/playback/demo", s.handleDemo)
	mux.HandleFunc("/app/playback/upload", s.handleUpload)
	mux.HandleFunc("/app/playback/watch", s.handleWatch)
	mux.HandleFunc("/app/playback/source", s.handleSource)
	mux.HandleFunc("/app/playback/error", s.handlePlaybackError)
	mux.HandleFunc("/app/search", s.handleSearch)
	mux.HandleFunc("/app/search/page", s.handleSearchPage)
	mux.HandleFunc("/app/settings", s.handleSettings)
	mux.HandleFunc("/app/settings/proxy", s.handleProxySettings)
	mux.HandleFunc("/app/settings/proxy/test", s.handleProxyTest)
	mux.HandleFunc("/app/settings/prowlarr", s.handleProwlarrSettings)
	mux.HandleFunc("/app/settings/prowlarr/test", s.handleProwlarrTest)
	mux.HandleFunc("/app/settings/jackett", s.handleJackettSettings)
	mux.HandleFunc("/app/settings/jackett/test", s.handleJackettTest)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "webclient",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health" && p != "/ws"
		}),
	)
	return recoveryMiddleware(s.logger, traced)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Magnet string `json:"magnet"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	ok := s.playback.Submit(r.Context(), body.Magnet, s.playControl, playLabel)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ok := s.playback.Demo(r.Context(), s.demoControl, playLabel)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("torrent")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "torrent file is required")
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "upload read failed")
		return
	}
	ok := s.playback.SubmitTorrentFile(r.Context(), header.Filename, contents, s.playControl, playLabel)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

// handleWatch submits a search result by its position in the stored result
// set. The download URL is preferred over the magnet when both are present.
// Each watch button manages its own busy state, so the control is created per
// request from the id the page sends.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Index     int    `json:"index"`
		ControlID string `json:"controlId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	result, ok := s.search.Result(body.Index)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown search result")
		return
	}
	var control *ui.Control
	if strings.TrimSpace(body.ControlID) != "" {
		control = ui.NewControl(body.ControlID, watchLabel, s.sink)
	}
	ok = s.playback.Submit(r.Context(), result.WatchURL(), control, watchLabel)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Index int `json:"index"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if !s.playback.SelectSource(body.Index) {
		writeError(w, http.StatusBadRequest, "invalid_request", "no such source")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handlePlaybackError receives playback failures from the widget on the page.
// The raw detail goes to the log; the user sees the generic toast.
func (s *Server) handlePlaybackError(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.logger.Warn("player error reported", slog.String("detail", body.Detail))
	s.notifier.Error(playbackErrorMessage)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}
	if !s.search.Search(r.Context(), body.Query) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, s.search.CurrentPage())
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Page int    `json:"page"`
		Move string `json:"move"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	var page search.Page
	switch body.Move {
	case "next":
		page = s.search.NextPage()
	case "prev":
		page = s.search.PrevPage()
	case "":
		page = s.search.GoToPage(body.Page)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown move")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

func (s *Server) handleProxySettings(w http.ResponseWriter, r *http.Request) {
	var group domain.ProxySettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.SaveProxy(r.Context(), group)})
}

func (s *Server) handleProxyTest(w http.ResponseWriter, r *http.Request) {
	var group domain.ProxySettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.TestProxy(r.Context(), group)})
}

func (s *Server) handleProwlarrSettings(w http.ResponseWriter, r *http.Request) {
	var group domain.ProwlarrSettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.SaveProwlarr(r.Context(), group)})
}

func (s *Server) handleProwlarrTest(w http.ResponseWriter, r *http.Request) {
	var group domain.ProwlarrSettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.TestProwlarr(r.Context(), group)})
}

func (s *Server) handleJackettSettings(w http.ResponseWriter, r *http.Request) {
	var group domain.JackettSettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.SaveJackett(r.Context(), group)})
}

func (s *Server) handleJackettTest(w http.ResponseWriter, r *http.Request) {
	var group domain.JackettSettings
	if !decodeGroup(w, r, &group) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.settings.TestJackett(r.Context(), group)})
}

func decodeGroup(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return decodeBody(w, r, out)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
