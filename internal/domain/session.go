package domain

// TorrentFile is one entry of a session's backend file listing.
type TorrentFile struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size,omitempty"`
}

// Session is the backend-resolved, streamable representation of one torrent.
// It lives only for the duration of one playback and is never persisted.
type Session struct {
	ID    string
	Files []TorrentFile
}

// VideoSource is one playable source derived from a session's file listing.
type VideoSource struct {
	Src      string `json:"src"`
	Title    string `json:"title"`
	MIMEType string `json:"type"`
}

// SubtitleTrack is one subtitle stream, served with a forced VTT transcript
// format so the player can consume it regardless of the container format.
type SubtitleTrack struct {
	Src      string `json:"src"`
	Lang     string `json:"srclang"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	FileName string `json:"-"`
}
