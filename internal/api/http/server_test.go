package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/search"
	"torrentstream/webclient/internal/session"
	"torrentstream/webclient/internal/ui"
)

type fakePlayback struct {
	submitted []string
	uploads   []string
	demos     int
	selected  []int
}

func (f *fakePlayback) Submit(_ context.Context, magnet string, _ *ui.Control, _ string) bool {
	f.submitted = append(f.submitted, magnet)
	return magnet != ""
}

func (f *fakePlayback) SubmitTorrentFile(_ context.Context, filename string, _ []byte, _ *ui.Control, _ string) bool {
	f.uploads = append(f.uploads, filename)
	return true
}

func (f *fakePlayback) Demo(context.Context, *ui.Control, string) bool {
	f.demos++
	return true
}

func (f *fakePlayback) SelectSource(index int) bool {
	f.selected = append(f.selected, index)
	return index == 0
}

func (f *fakePlayback) Current() (session.Playback, bool) {
	return session.Playback{}, false
}

type fakeSearch struct {
	queries []string
	results []domain.SearchResult
	page    int
}

func (f *fakeSearch) Search(_ context.Context, query string) bool {
	f.queries = append(f.queries, query)
	return strings.TrimSpace(query) != ""
}

func (f *fakeSearch) Result(index int) (domain.SearchResult, bool) {
	if index < 0 || index >= len(f.results) {
		return domain.SearchResult{}, false
	}
	return f.results[index], true
}

func (f *fakeSearch) CurrentPage() search.Page { return search.Page{Number: f.page} }
func (f *fakeSearch) GoToPage(n int) search.Page {
	f.page = n
	return search.Page{Number: n}
}
func (f *fakeSearch) NextPage() search.Page { return f.GoToPage(f.page + 1) }
func (f *fakeSearch) PrevPage() search.Page { return f.GoToPage(f.page - 1) }

type fakeSettings struct {
	saved []string
}

func (f *fakeSettings) Snapshot() domain.Settings { return domain.Settings{EnableJackett: true} }
func (f *fakeSettings) TestProxy(context.Context, domain.ProxySettings) bool       { return true }
func (f *fakeSettings) TestProwlarr(context.Context, domain.ProwlarrSettings) bool { return true }
func (f *fakeSettings) TestJackett(context.Context, domain.JackettSettings) bool   { return true }
func (f *fakeSettings) SaveProxy(context.Context, domain.ProxySettings) bool {
	f.saved = append(f.saved, "proxy")
	return true
}
func (f *fakeSettings) SaveProwlarr(context.Context, domain.ProwlarrSettings) bool {
	f.saved = append(f.saved, "prowlarr")
	return true
}
func (f *fakeSettings) SaveJackett(context.Context, domain.JackettSettings) bool {
	f.saved = append(f.saved, "jackett")
	return true
}

func newTestServer() (*Server, *fakePlayback, *fakeSearch, *fakeSettings) {
	playback := &fakePlayback{}
	searchSvc := &fakeSearch{page: 1}
	settingsSvc := &fakeSettings{}
	server := NewServer(playback, searchSvc, settingsSvc)
	return server, playback, searchSvc, settingsSvc
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestPlaybackSubmitRoutes(t *testing.T) {
	server, playback, _, _ := newTestServer()
	rec := postJSON(t, server.Handler(), "/app/playback", map[string]string{"magnet": "magnet:x"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(playback.submitted) != 1 || playback.submitted[0] != "magnet:x" {
		t.Fatalf("submit not routed, got %v", playback.submitted)
	}
	var out map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || !out["ok"] {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
}

func TestWatchSubmitsResultURL(t *testing.T) {
	server, playback, searchSvc, _ := newTestServer()
	searchSvc.results = []domain.SearchResult{
		{Title: "magnet only", MagnetURL: "magnet:?xt=urn:btih:abc"},
		{Title: "both", MagnetURL: "magnet:?xt=urn:btih:def", DownloadURL: "http://indexer/dl/2"},
	}
	handler := server.Handler()

	rec := postJSON(t, handler, "/app/playback/watch", map[string]any{
		"index":     1,
		"controlId": "watch-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(playback.submitted) != 1 || playback.submitted[0] != "http://indexer/dl/2" {
		t.Fatalf("watch must prefer the download link, got %v", playback.submitted)
	}

	postJSON(t, handler, "/app/playback/watch", map[string]any{"index": 0})
	if playback.submitted[1] != "magnet:?xt=urn:btih:abc" {
		t.Fatalf("watch must fall back to the magnet, got %v", playback.submitted)
	}

	rec = postJSON(t, handler, "/app/playback/watch", map[string]any{"index": 9})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown index must 400, got %d", rec.Code)
	}
}

func TestUploadRoutesMultipart(t *testing.T) {
	server, playback, _, _ := newTestServer()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("torrent", "sintel.torrent")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("d8:announce0:e"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/app/playback/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if len(playback.uploads) != 1 || playback.uploads[0] != "sintel.torrent" {
		t.Fatalf("upload not routed, got %v", playback.uploads)
	}
}

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *recordingNotifier) Error(message string)   { n.errors = append(n.errors, message) }

func TestPlayerErrorSurfacesGenericToast(t *testing.T) {
	playback := &fakePlayback{}
	notifier := &recordingNotifier{}
	server := NewServer(playback, &fakeSearch{page: 1}, &fakeSettings{}, WithNotifier(notifier))

	rec := postJSON(t, server.Handler(), "/app/playback/error", map[string]string{
		"detail": "MEDIA_ERR_DECODE",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(notifier.errors) != 1 || notifier.errors[0] != "Something went wrong" {
		t.Fatalf("raw widget detail must not reach the user, got %v", notifier.errors)
	}
}

func TestSourceRejectsUnknownIndex(t *testing.T) {
	server, _, _, _ := newTestServer()
	rec := postJSON(t, server.Handler(), "/app/playback/source", map[string]int{"index": 4})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSearchPageMoves(t *testing.T) {
	server, _, searchSvc, _ := newTestServer()
	handler := server.Handler()

	postJSON(t, handler, "/app/search/page", map[string]any{"move": "next"})
	if searchSvc.page != 2 {
		t.Fatalf("next must advance, page=%d", searchSvc.page)
	}
	postJSON(t, handler, "/app/search/page", map[string]any{"page": 5})
	if searchSvc.page != 5 {
		t.Fatalf("page jump must apply, page=%d", searchSvc.page)
	}
	rec := postJSON(t, handler, "/app/search/page", map[string]any{"move": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown move must 400, got %d", rec.Code)
	}
}

func TestSettingsRoutes(t *testing.T) {
	server, _, _, settingsSvc := newTestServer()
	handler := server.Handler()

	req := httptest.NewRequest(http.MethodGet, "/app/settings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var snapshot domain.Settings
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil || !snapshot.EnableJackett {
		t.Fatalf("snapshot not served: %s", rec.Body.String())
	}

	postJSON(t, handler, "/app/settings/jackett", domain.JackettSettings{EnableJackett: true})
	postJSON(t, handler, "/app/settings/proxy", domain.ProxySettings{})
	if len(settingsSvc.saved) != 2 || settingsSvc.saved[0] != "jackett" || settingsSvc.saved[1] != "proxy" {
		t.Fatalf("saves not routed, got %v", settingsSvc.saved)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _, _, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/app/playback", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}
