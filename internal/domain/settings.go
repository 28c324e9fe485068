package domain

import "strings"

// Settings is the full user-configuration record as served by the backend's
// GET /settings. The record is always complete; empty strings mean "unset".
// Snapshots are value types; callers copy, never share.
type Settings struct {
	EnableProxy    bool   `json:"enableProxy"`
	ProxyURL       string `json:"proxyUrl"`
	EnableProwlarr bool   `json:"enableProwlarr"`
	ProwlarrHost   string `json:"prowlarrHost"`
	ProwlarrAPIKey string `json:"prowlarrApiKey"`
	EnableJackett  bool   `json:"enableJackett"`
	JackettHost    string `json:"jackettHost"`
	JackettAPIKey  string `json:"jackettApiKey"`
}

// ProxySettings is the proxy configuration group.
type ProxySettings struct {
	EnableProxy bool   `json:"enableProxy"`
	ProxyURL    string `json:"proxyUrl"`
}

// ProwlarrSettings is the primary search-provider configuration group.
type ProwlarrSettings struct {
	EnableProwlarr bool   `json:"enableProwlarr"`
	ProwlarrHost   string `json:"prowlarrHost"`
	ProwlarrAPIKey string `json:"prowlarrApiKey"`
}

// JackettSettings is the secondary search-provider configuration group.
type JackettSettings struct {
	EnableJackett bool   `json:"enableJackett"`
	JackettHost   string `json:"jackettHost"`
	JackettAPIKey string `json:"jackettApiKey"`
}

// ProwlarrConfigured reports whether the primary provider has both host and
// API key set.
func (s Settings) ProwlarrConfigured() bool {
	return strings.TrimSpace(s.ProwlarrHost) != "" && strings.TrimSpace(s.ProwlarrAPIKey) != ""
}

// JackettConfigured reports whether the secondary provider has both host and
// API key set.
func (s Settings) JackettConfigured() bool {
	return strings.TrimSpace(s.JackettHost) != "" && strings.TrimSpace(s.JackettAPIKey) != ""
}

// SearchEnabled reports whether any search provider is enabled. It drives the
// visibility of the search UI region.
func (s Settings) SearchEnabled() bool {
	return s.EnableProwlarr || s.EnableJackett
}

// WithProxy returns a copy with the proxy group replaced.
func (s Settings) WithProxy(group ProxySettings) Settings {
	s.EnableProxy = group.EnableProxy
	s.ProxyURL = group.ProxyURL
	return s
}

// WithProwlarr returns a copy with the primary provider group replaced.
func (s Settings) WithProwlarr(group ProwlarrSettings) Settings {
	s.EnableProwlarr = group.EnableProwlarr
	s.ProwlarrHost = group.ProwlarrHost
	s.ProwlarrAPIKey = group.ProwlarrAPIKey
	return s
}

// WithJackett returns a copy with the secondary provider group replaced.
func (s Settings) WithJackett(group JackettSettings) Settings {
	s.EnableJackett = group.EnableJackett
	s.JackettHost = group.JackettHost
	s.JackettAPIKey = group.JackettAPIKey
	return s
}

// Proxy returns the proxy group of the snapshot.
func (s Settings) Proxy() ProxySettings {
	return ProxySettings{EnableProxy: s.EnableProxy, ProxyURL: s.ProxyURL}
}

// Prowlarr returns the primary provider group of the snapshot.
func (s Settings) Prowlarr() ProwlarrSettings {
	return ProwlarrSettings{
		EnableProwlarr: s.EnableProwlarr,
		ProwlarrHost:   s.ProwlarrHost,
		ProwlarrAPIKey: s.ProwlarrAPIKey,
	}
}

// Jackett returns the secondary provider group of the snapshot.
func (s Settings) Jackett() JackettSettings {
	return JackettSettings{
		EnableJackett: s.EnableJackett,
		JackettHost:   s.JackettHost,
		JackettAPIKey: s.JackettAPIKey,
	}
}
