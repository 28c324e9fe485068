package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"torrentstream/webclient/internal/domain"
)

func TestAddTorrentReturnsSessionID(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/torrent/add" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Fatalf("missing request id header")
		}
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"abc123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sessionID, err := client.AddTorrent(context.Background(), "magnet:?xt=urn:btih:deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessionID != "abc123" {
		t.Fatalf("unexpected session id: %q", sessionID)
	}
	if !strings.Contains(gotBody, "magnet:?xt=urn:btih:deadbeef") {
		t.Fatalf("magnet missing from body: %s", gotBody)
	}
}

func TestErrorCarriesServerMessageVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid magnet url"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.AddTorrent(context.Background(), "magnet:?xt=urn:btih:nope")
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Error() != "Invalid magnet url" {
		t.Fatalf("expected verbatim server message, got %q", apiErr.Error())
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestErrorFallsBackToGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListFiles(context.Background(), "abc")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Error() != "Something went wrong" {
		t.Fatalf("expected generic fallback, got %q", apiErr.Error())
	}
}

func TestListFilesDecodesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/torrent/abc123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"index":0,"name":"movie.mkv","size":700},{"index":1,"name":"movie.en.srt"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	files, err := client.ListFiles(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0].Name != "movie.mkv" || files[1].Index != 1 {
		t.Fatalf("unexpected listing: %+v", files)
	}
}

func TestSearchTargetsProviderEndpoint(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title":"Sintel","indexer":"tpb","seeders":42,"magnetUrl":"magnet:?xt=urn:btih:08ada5"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.Search(context.Background(), domain.ProviderJackett, "sintel movie")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/jackett/search" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotQuery != "sintel movie" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(results) != 1 || results[0].Seeders != 42 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestConvertTorrentUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("torrent")
		if err != nil {
			t.Fatalf("missing torrent field: %v", err)
		}
		defer file.Close()
		if header.Filename != "sintel.torrent" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"magnet":"magnet:?xt=urn:btih:08ada5"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	magnet, err := client.ConvertTorrent(context.Background(), "sintel.torrent", strings.NewReader("d8:announce0:e"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if magnet != "magnet:?xt=urn:btih:08ada5" {
		t.Fatalf("unexpected magnet: %q", magnet)
	}
}

func TestTestProxyReturnsOrigin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/proxy/test" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"origin":"203.0.113.7"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	origin, err := client.TestProxy(context.Background(), "socks5://proxy:1080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if origin != "203.0.113.7" {
		t.Fatalf("unexpected origin: %q", origin)
	}
}

func TestStreamPathShapes(t *testing.T) {
	if got := StreamPath("abc", 2); got != "/api/v1/torrent/abc/stream/2" {
		t.Fatalf("unexpected stream path: %s", got)
	}
	if got := SubtitlePath("abc", 3); got != "/api/v1/torrent/abc/stream/3.vtt?format=vtt" {
		t.Fatalf("unexpected subtitle path: %s", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	saved := make(map[string]string)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/settings":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"enableProxy":true,"proxyUrl":"socks5://p:1080","enableProwlarr":false,"prowlarrHost":"","prowlarrApiKey":"","enableJackett":true,"jackettHost":"http://j:9117","jackettApiKey":"k"}`))
		case "/api/v1/settings/jackett":
			raw, _ := io.ReadAll(r.Body)
			saved["jackett"] = string(raw)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	settings, err := client.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.EnableProxy || !settings.JackettConfigured() {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	// Saving the loaded group unchanged must reproduce its persisted values.
	if err := client.SaveJackettSettings(context.Background(), settings.Jackett()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(saved["jackett"], `"jackettHost":"http://j:9117"`) {
		t.Fatalf("jackett group not round-tripped: %s", saved["jackett"])
	}
}
