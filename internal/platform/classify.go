// Package platform identifies supported video hosts and resolves metadata,
// caption tracks, stream URLs, and downloads for them.
package platform

import (
	"net/url"
	"strings"
)

var videoHosts = []string{"youtube", "youtu.be", "vimeo", "dailymotion"}

// IsVideoURL reports whether the URL belongs to a supported video platform.
// No network access; unsupported hosts route the caller to the non-video path.
func IsVideoURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range videoHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// ExtractVideoID pulls the YouTube video ID from the URL, handling both the
// youtu.be short form (path) and youtube.com watch URLs (?v= query). Returns
// "" for anything else.
func ExtractVideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "youtu.be"):
		parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
		return parts[0]
	case strings.Contains(host, "youtube"):
		return u.Query().Get("v")
	}
	return ""
}
