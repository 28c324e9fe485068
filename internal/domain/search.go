package domain

// SearchProvider identifies one of the two interchangeable search indexes the
// backend proxies for us.
type SearchProvider string

const (
	ProviderProwlarr SearchProvider = "prowlarr"
	ProviderJackett  SearchProvider = "jackett"
)

// SearchResult is one record of a provider response. Size arrives
// pre-formatted by the backend ("1.40 GB"); order within a response is
// provider-defined and must be retained.
type SearchResult struct {
	Title        string `json:"title"`
	Indexer      string `json:"indexer,omitempty"`
	Size         string `json:"size,omitempty"`
	Seeders      int    `json:"seeders,omitempty"`
	Leechers     int    `json:"leechers,omitempty"`
	MagnetURL    string `json:"magnetUrl,omitempty"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
	DirectMagnet bool   `json:"directMagnet,omitempty"`
	PublishDate  string `json:"publishDate,omitempty"`
	Category     string `json:"category,omitempty"`
}

// WatchURL is the URL a "watch" action submits: the indexer download link
// when present, otherwise the magnet.
func (r SearchResult) WatchURL() string {
	if r.DownloadURL != "" {
		return r.DownloadURL
	}
	return r.MagnetURL
}
