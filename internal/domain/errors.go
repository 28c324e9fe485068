package domain

import "errors"

// ErrNotTorrentFile rejects an upload whose filename does not end in
// .torrent before anything is read or sent.
var ErrNotTorrentFile = errors.New("not a .torrent file")
