// Package convert turns uploaded .torrent files into magnet links. Parsing
// happens locally when possible; the backend convert endpoint is the fallback
// for files the local parser rejects.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/anacrolix/torrent/metainfo"

	"torrentstream/webclient/internal/domain"
)

// MagnetConverter is the backend fallback (satisfied by *api.Client).
type MagnetConverter interface {
	ConvertTorrent(ctx context.Context, filename string, contents io.Reader) (string, error)
}

// CheckFilename rejects anything that is not a .torrent upload. This runs
// before any parsing or network call.
func CheckFilename(name string) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".torrent") {
		return domain.ErrNotTorrentFile
	}
	return nil
}

// MagnetFromTorrent parses torrent metainfo and builds the magnet link the
// way the backend does: info hash, display name, then every tracker tier.
func MagnetFromTorrent(contents []byte) (string, error) {
	mi, err := metainfo.Load(bytes.NewReader(contents))
	if err != nil {
		return "", fmt.Errorf("invalid torrent file: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("magnet:?xt=urn:btih:")
	sb.WriteString(mi.HashInfoBytes().String())

	if info, err := mi.UnmarshalInfo(); err == nil && info.Name != "" {
		sb.WriteString("&dn=")
		sb.WriteString(url.QueryEscape(info.Name))
	}
	for _, tier := range mi.AnnounceList {
		for _, tracker := range tier {
			sb.WriteString("&tr=")
			sb.WriteString(url.QueryEscape(tracker))
		}
	}
	return sb.String(), nil
}

// Converter resolves uploads to magnets, preferring the local parser.
type Converter struct {
	fallback MagnetConverter
	logger   *slog.Logger
}

func NewConverter(fallback MagnetConverter, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{fallback: fallback, logger: logger}
}

// ToMagnet validates the filename, parses locally, and only ships the file to
// the backend when local parsing fails.
func (c *Converter) ToMagnet(ctx context.Context, filename string, contents []byte) (string, error) {
	if err := CheckFilename(filename); err != nil {
		return "", err
	}

	magnet, err := MagnetFromTorrent(contents)
	if err == nil {
		return magnet, nil
	}
	if c.fallback == nil {
		return "", err
	}

	c.logger.Debug("local torrent parse failed, using convert endpoint",
		slog.String("file", filename), slog.String("error", err.Error()))
	return c.fallback.ConvertTorrent(ctx, filename, bytes.NewReader(contents))
}
