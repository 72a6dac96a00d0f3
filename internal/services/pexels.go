package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/storage"
)

// ---------------------------------------------------------------------------
// Pexels stock-media search
// Searches photos and video clips for a query and downloads the results
// into the run workspace. Video results prefer the smallest HD rendition
// no wider than 1920px.
// ---------------------------------------------------------------------------

const (
	pexelsPhotoSearchURL = "https://api.pexels.com/v1/search"
	pexelsVideoSearchURL = "https://api.pexels.com/videos/search"

	searchTimeout   = 20 * time.Second
	downloadTimeout = 90 * time.Second

	maxSearchRetries = 2
	baseRetryDelay   = 500 * time.Millisecond
	maxRetryDelay    = 5 * time.Second
)

type PexelsService struct {
	apiKey string
	client *http.Client
}

func NewPexelsService(apiKey string) *PexelsService {
	return &PexelsService{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: downloadTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// RunSearcher binds the Pexels service to one run's workspace so that
// downloaded assets land in that run's private directories.
type RunSearcher struct {
	svc *PexelsService
	ws  *storage.Workspace
}

func (s *PexelsService) ForRun(ws *storage.Workspace) *RunSearcher {
	return &RunSearcher{svc: s, ws: ws}
}

// Search returns up to count assets for the query, in provider order.
// With preferVideo set, video clips are requested first and any
// remainder is filled with images. If the video search fails, the
// whole query falls back to images only. Fewer than count results —
// including zero — is not an error.
func (r *RunSearcher) Search(ctx context.Context, query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
	var assets []models.MediaAsset

	if preferVideo {
		videos, err := r.svc.searchVideos(ctx, r.ws, query, count)
		if err != nil {
			log.Printf("[Pexels] Video search for %q failed, falling back to images: %v", query, err)
		} else {
			assets = append(assets, videos...)
		}
	}

	remaining := count - len(assets)
	if remaining > 0 {
		images, err := r.svc.searchImages(ctx, r.ws, query, remaining)
		if err != nil {
			if len(assets) > 0 {
				log.Printf("[Pexels] Image top-up for %q failed: %v", query, err)
				return assets, nil
			}
			return nil, fmt.Errorf("media search for %q failed: %w", query, err)
		}
		assets = append(assets, images...)
	}

	for i := range assets {
		assets[i].Query = query
	}
	return assets, nil
}

// ---------------------------------------------------------------------------
// Photo search
// ---------------------------------------------------------------------------

type pexelsPhotoResponse struct {
	Photos []struct {
		Src struct {
			Landscape string `json:"landscape"`
		} `json:"src"`
	} `json:"photos"`
}

func (s *PexelsService) searchImages(ctx context.Context, ws *storage.Workspace, query string, count int) ([]models.MediaAsset, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s?query=%s&per_page=%d", pexelsPhotoSearchURL, url.QueryEscape(query), count))
	if err != nil {
		return nil, err
	}

	var result pexelsPhotoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse photo search response: %w", err)
	}

	var assets []models.MediaAsset
	for _, photo := range result.Photos {
		if photo.Src.Landscape == "" {
			continue
		}
		path := ws.NewImagePath()
		if err := s.download(ctx, photo.Src.Landscape, path); err != nil {
			log.Printf("[Pexels] Image download failed for %q: %v", query, err)
			continue
		}
		assets = append(assets, models.MediaAsset{
			Kind: models.MediaKindImage,
			Path: path,
		})
	}
	return assets, nil
}

// ---------------------------------------------------------------------------
// Video search
// ---------------------------------------------------------------------------

type pexelsVideoResponse struct {
	Videos []struct {
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		Duration   float64 `json:"duration"`
		VideoFiles []struct {
			Quality string `json:"quality"`
			Width   int    `json:"width"`
			Height  int    `json:"height"`
			Link    string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (s *PexelsService) searchVideos(ctx context.Context, ws *storage.Workspace, query string, count int) ([]models.MediaAsset, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s?query=%s&per_page=%d", pexelsVideoSearchURL, url.QueryEscape(query), count))
	if err != nil {
		return nil, err
	}

	var result pexelsVideoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse video search response: %w", err)
	}

	var assets []models.MediaAsset
	for _, video := range result.Videos {
		// Smallest HD rendition no wider than 1920px
		link := ""
		width, height := video.Width, video.Height
		for _, vf := range video.VideoFiles {
			if vf.Quality == "hd" && vf.Width <= 1920 {
				link = vf.Link
				if vf.Width > 0 {
					width, height = vf.Width, vf.Height
				}
				break
			}
		}
		if link == "" {
			continue
		}

		path := ws.NewVideoPath()
		if err := s.download(ctx, link, path); err != nil {
			log.Printf("[Pexels] Video download failed for %q: %v", query, err)
			continue
		}
		assets = append(assets, models.MediaAsset{
			Kind:        models.MediaKindVideo,
			Path:        path,
			Width:       width,
			Height:      height,
			DurationSec: video.Duration,
		})
	}
	return assets, nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// get performs an authorized search request with bounded retries and
// exponential backoff.
func (s *PexelsService) get(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxSearchRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			log.Printf("[Pexels] Search retry %d/%d (waiting %v)...", attempt, maxSearchRetries, delay)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("search cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, searchTimeout)
		req, err := http.NewRequestWithContext(reqCtx, "GET", requestURL, nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("search request failed: %w", err)
			if isRetryableError(err) {
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()

		if resp.StatusCode == http.StatusOK {
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read search response: %w", readErr)
				continue
			}
			return body, nil
		}

		lastErr = fmt.Errorf("search returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
		if isRetryableStatus(resp.StatusCode) {
			continue
		}
		return nil, lastErr
	}

	return nil, fmt.Errorf("search failed after %d attempts: %w", maxSearchRetries+1, lastErr)
}

// download streams a media URL to disk.
func (s *PexelsService) download(ctx context.Context, mediaURL, destPath string) error {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, "GET", mediaURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return f.Close()
}

// retryDelay calculates exponential backoff with jitter: base * 2^attempt + random jitter
func retryDelay(attempt int) time.Duration {
	delay := float64(baseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	// Add 0–25% jitter to avoid thundering herd
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}

// isRetryableError checks if a network-level error is worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "broken pipe")
}

// isRetryableStatus checks if an HTTP status code is worth retrying
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || // 429
		status == http.StatusRequestTimeout || // 408
		status == http.StatusBadGateway || // 502
		status == http.StatusServiceUnavailable || // 503
		status == http.StatusGatewayTimeout // 504
}

// truncate limits a string to maxLen characters for log output
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
