package model

import (
	"net/url"
	"strings"
)

// ExtractVideoID finds the video id in a watch, youtu.be, shorts or live URL.
func ExtractVideoID(href string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	if v := u.Query().Get("v"); v != "" {
		return v, true
	}

	host := strings.ToLower(u.Hostname())
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")

	if host == "youtu.be" {
		if parts[0] != "" {
			return parts[0], true
		}
		return "", false
	}

	if host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") {
		if len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "live") && parts[1] != "" {
			return parts[1], true
		}
	}

	return "", false
}

// ResolveVideoID accepts either an explicit id or a URL to extract one from.
func ResolveVideoID(videoID, videoURL string) (string, error) {
	if id := strings.TrimSpace(videoID); id != "" {
		return id, nil
	}
	if strings.TrimSpace(videoURL) == "" {
		return "", NewValidationError("missing video").Add("videoUrl", "required")
	}
	id, ok := ExtractVideoID(videoURL)
	if !ok {
		return "", NewValidationError("L'URL de la vidéo YouTube est invalide").Add("videoUrl", "no video id found")
	}
	return id, nil
}
