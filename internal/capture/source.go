package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zombor/billsmart/internal/device"
)

// Source produces a single still frame from a bound device
type Source interface {
	// Frame returns the raw frame and its content type
	Frame(ctx context.Context) ([]byte, string, error)
}

// Open binds a source to the resolved device based on its ID:
// http(s) URLs are snapshot endpoints (DroidCam serves /cam/1/shot.jpg),
// /dev paths are V4L2 devices read through ffmpeg, anything else is a file.
func Open(d device.Device, client *http.Client) (Source, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		return nil, fmt.Errorf("device %q has no id", d.Label)
	}

	switch {
	case strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://"):
		return NewHTTPSource(id, client), nil
	case strings.HasPrefix(id, "file://"):
		u, err := url.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing device url: %w", err)
		}
		return NewFileSource(u.Path), nil
	case strings.HasPrefix(id, "/dev/"):
		return NewFFmpegSource(id, ""), nil
	default:
		return NewFileSource(id), nil
	}
}

// HTTPSource fetches a snapshot from a URL
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a snapshot source; a nil client uses http.DefaultClient
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

// Frame GETs the snapshot URL
func (h *HTTPSource) Frame(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading snapshot: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// FFmpegSource grabs one frame from a V4L2 device
type FFmpegSource struct {
	device string
	binary string
}

// NewFFmpegSource creates a V4L2 source; binary defaults to "ffmpeg"
func NewFFmpegSource(device, binary string) *FFmpegSource {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegSource{device: device, binary: binary}
}

// Frame runs ffmpeg and reads a single MJPEG frame from stdout
func (f *FFmpegSource) Frame(ctx context.Context) ([]byte, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary,
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", f.device,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "mjpeg", "-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("running %s: %w: %s", f.binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), "image/jpeg", nil
}

// FileSource reads a still image (or scanned PDF) from disk
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Frame reads the file; the content type comes from the extension
func (f *FileSource) Frame(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, contentTypeFor(f.path), nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
