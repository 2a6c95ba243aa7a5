// Package youtube turns a video link into a thumbnail source image.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mhpenta/thumbgen"
)

// DefaultBaseURL serves video thumbnails.
const DefaultBaseURL = "https://img.youtube.com"

// ErrThumbnailUnavailable is returned when no thumbnail quality answers.
var ErrThumbnailUnavailable = errors.New("youtube thumbnail unavailable")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#\s]*&)?v=|youtube\.com/embed/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// qualities are tried in order.
var qualities = []string{"maxresdefault", "hqdefault"}

// ExtractVideoID returns the 11-character video id in a watch, embed, short
// or youtu.be link, or a bare id.
func ExtractVideoID(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Client fetches video thumbnails.
type Client struct {
	BaseURL string       // empty uses DefaultBaseURL
	HTTP    *http.Client // nil uses http.DefaultClient
}

func NewClient() *Client {
	return &Client{BaseURL: DefaultBaseURL, HTTP: http.DefaultClient}
}

// FetchThumbnail downloads the best available thumbnail of videoID.
func (c *Client) FetchThumbnail(ctx context.Context, videoID string) (thumbgen.InputImage, error) {
	for _, quality := range qualities {
		url := c.thumbnailURL(videoID, quality)
		if !c.exists(ctx, url) {
			continue
		}

		img, err := thumbgen.FetchRemoteAsBinary(ctx, c.HTTP, url)
		if err != nil {
			return thumbgen.InputImage{}, err
		}
		img.Name = fmt.Sprintf("youtube-thumbnail-%s.jpg", videoID)
		if img.MIMEType == "" || img.MIMEType == "application/octet-stream" {
			img.MIMEType = "image/jpeg"
		}
		return img, nil
	}
	return thumbgen.InputImage{}, fmt.Errorf("%w: %s", ErrThumbnailUnavailable, videoID)
}

// FetchFromURL extracts the video id from url and fetches its thumbnail.
func (c *Client) FetchFromURL(ctx context.Context, url string) (thumbgen.InputImage, error) {
	id, ok := ExtractVideoID(url)
	if !ok {
		return thumbgen.InputImage{}, &thumbgen.ValidationError{
			Field:   "youtube",
			Message: "invalid YouTube URL",
		}
	}
	return c.FetchThumbnail(ctx, id)
}

func (c *Client) thumbnailURL(videoID, quality string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/vi/%s/%s.jpg", strings.TrimRight(base, "/"), videoID, quality)
}

func (c *Client) exists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
