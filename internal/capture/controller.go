// Package capture owns the single captured-image slot.
//
// The slot moves Idle -> Held -> Submitted. Retake returns to Idle from any
// state; there is no way to reach Submitted without a held image.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zombor/billsmart/internal/imaging"
)

var (
	// ErrNoDevice is returned when no source is bound; capture is a no-op
	ErrNoDevice = errors.New("no capture device bound")
	// ErrCaptureFailed is returned when the frame read produced nothing usable
	ErrCaptureFailed = errors.New("capture failed")
	// ErrImageHeld is returned when capturing over an image that was not retaken
	ErrImageHeld = errors.New("an image is already held, retake first")
)

// State of the capture session
type State int

const (
	StateIdle State = iota
	StateHeld
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateHeld:
		return "held"
	case StateSubmitted:
		return "submitted"
	default:
		return "idle"
	}
}

// Image is a captured still frame, always JPEG encoded
type Image struct {
	Data       []byte
	CapturedAt time.Time
}

// ContentType of Data
func (i *Image) ContentType() string {
	return "image/jpeg"
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Controller owns the capture session
type Controller struct {
	source     Source
	timeSource TimeSource

	mu    sync.Mutex
	image *Image
	state State
}

// NewController creates a controller; source may be nil when no device resolved
func NewController(source Source) *Controller {
	return NewControllerWithDeps(source, &defaultTimeSource{})
}

// NewControllerWithDeps creates a controller with a custom time source for testing
func NewControllerWithDeps(source Source, timeSrc TimeSource) *Controller {
	return &Controller{
		source:     source,
		timeSource: timeSrc,
		state:      StateIdle,
	}
}

// HasDevice reports whether a source is bound
func (c *Controller) HasDevice() bool {
	return c.source != nil
}

// Capture reads one frame and stores it as the held image. Failures leave
// the session unchanged.
func (c *Controller) Capture(ctx context.Context) (*Image, error) {
	if c.source == nil {
		return nil, ErrNoDevice
	}

	c.mu.Lock()
	held := c.state != StateIdle
	c.mu.Unlock()
	if held {
		return nil, ErrImageHeld
	}

	data, contentType, err := c.source.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrCaptureFailed)
	}

	jpegData, err := imaging.ToJPEG(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	img := &Image{Data: jpegData, CapturedAt: c.timeSource.Now()}

	c.mu.Lock()
	defer c.mu.Unlock()
	// a concurrent capture may have won while the frame was being read
	if c.state != StateIdle {
		return nil, ErrImageHeld
	}
	c.image = img
	c.state = StateHeld
	return img, nil
}

// Retake clears the held image; calling it repeatedly is harmless
func (c *Controller) Retake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = nil
	c.state = StateIdle
}

// MarkSubmitted closes the session after a successful submission; the image
// is kept for display
func (c *Controller) MarkSubmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateHeld {
		c.state = StateSubmitted
	}
}

// Image returns the held image, or nil
func (c *Controller) Image() *Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// State returns the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
