package imagefetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"
)

const (
	// DefaultMaxBytes caps a single download; maxres thumbnails are well under it.
	DefaultMaxBytes = 8 << 20
	requestTimeout  = 10 * time.Second
)

var ErrTooLarge = errors.New("image exceeds size limit")

type fetcher struct {
	http     *http.Client
	cache    repository.IMetadataCache
	ttl      time.Duration
	maxBytes int64
}

// NewImageFetcher downloads images as data URIs. A nil cache disables caching.
func NewImageFetcher(cache repository.IMetadataCache, ttl time.Duration, client *http.Client) repository.IImageFetcher {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &fetcher{http: client, cache: cache, ttl: ttl, maxBytes: DefaultMaxBytes}
}

func cacheKey(href string) string {
	return "image:" + utils.HashKey(href)
}

// FetchDataURI returns href as a data: URI. data: hrefs are returned unchanged.
func (f *fetcher) FetchDataURI(ctx context.Context, href string) (string, error) {
	if strings.HasPrefix(href, "data:") {
		return href, nil
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return "", fmt.Errorf("unsupported image href %q", href)
	}

	key := cacheKey(href)
	if f.cache != nil {
		if cached, ok, err := f.cache.Get(ctx, key); err != nil {
			logger.GetLogger().WithField("error", err).Warn("image cache read failed")
		} else if ok {
			return string(cached), nil
		}
	}

	uri, err := f.download(ctx, href)
	if err != nil {
		return "", err
	}

	if f.cache != nil && f.ttl > 0 {
		if err := f.cache.Set(ctx, key, []byte(uri), f.ttl); err != nil {
			logger.GetLogger().WithField("error", err).Warn("image cache write failed")
		}
	}
	return uri, nil
}

func (f *fetcher) download(ctx context.Context, href string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch image %s: status %d", href, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("fetch image %s: %w", href, ErrTooLarge)
	}

	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		if declared := resp.Header.Get("Content-Type"); strings.HasPrefix(declared, "image/") {
			contentType = declared
		} else {
			contentType = "image/jpeg"
		}
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
