package session

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"torrentstream/webclient/internal/api"
	"torrentstream/webclient/internal/domain"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".avi":  {},
}

var subtitleExtensions = map[string]struct{}{
	".srt": {},
	".vtt": {},
	".sub": {},
}

// subtitleLangPattern matches a two or three letter language code embedded
// before the subtitle extension, e.g. "movie.fr.srt".
var subtitleLangPattern = regexp.MustCompile(`\.([a-z]{2,3})\.(srt|vtt|sub)$`)

func isVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

func isSubtitleFile(name string) bool {
	_, ok := subtitleExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// partitionFiles splits a session listing into playable videos and subtitle
// candidates, keeping the backend's ordering in both groups.
func partitionFiles(files []domain.TorrentFile) (videos, subtitles []domain.TorrentFile) {
	for _, file := range files {
		switch {
		case isVideoFile(file.Name):
			videos = append(videos, file)
		case isSubtitleFile(file.Name):
			subtitles = append(subtitles, file)
		}
	}
	return videos, subtitles
}

// subtitleLanguage extracts the language code from a subtitle filename.
// Files without a recognizable code default to English.
func subtitleLanguage(name string) (code, label string) {
	match := subtitleLangPattern.FindStringSubmatch(strings.ToLower(name))
	if match == nil {
		return "en", "English"
	}
	code = match[1]
	tag, err := language.Parse(code)
	if err != nil {
		return "en", "English"
	}
	label = display.English.Languages().Name(tag)
	if label == "" {
		return "en", "English"
	}
	return code, label
}

func buildVideoSources(sessionID string, videos []domain.TorrentFile) []domain.VideoSource {
	sources := make([]domain.VideoSource, 0, len(videos))
	for _, file := range videos {
		sources = append(sources, domain.VideoSource{
			Src:      api.StreamPath(sessionID, file.Index),
			Title:    file.Name,
			MIMEType: "video/mp4",
		})
	}
	return sources
}

func buildSubtitleTracks(sessionID string, subtitles []domain.TorrentFile) []domain.SubtitleTrack {
	tracks := make([]domain.SubtitleTrack, 0, len(subtitles))
	for _, file := range subtitles {
		code, label := subtitleLanguage(file.Name)
		tracks = append(tracks, domain.SubtitleTrack{
			Src:      api.SubtitlePath(sessionID, file.Index),
			Lang:     code,
			Label:    label,
			Kind:     "subtitles",
			FileName: file.Name,
		})
	}
	return tracks
}
