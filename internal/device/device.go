package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// KindVideoInput marks devices that can produce still frames
const KindVideoInput = "videoinput"

// preferredLabel is the external camera app that wins regardless of position
const preferredLabel = "droidcam"

// ErrDeviceUnavailable is returned when no usable capture device was resolved
var ErrDeviceUnavailable = errors.New("no external camera detected")

// Device describes one entry of the host's media device inventory
type Device struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Inventory enumerates the capture devices available on the host
type Inventory interface {
	Devices(ctx context.Context) ([]Device, error)
}

// Select picks a device by preference:
//  1. a label containing "droidcam" (any case)
//  2. the second device, treating the first as the built-in camera
//  3. the only device
func Select(devices []Device) (Device, bool) {
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Label), preferredLabel) {
			return d, true
		}
	}
	if len(devices) >= 2 {
		return devices[1], true
	}
	if len(devices) == 1 {
		return devices[0], true
	}
	return Device{}, false
}

// VideoInputs filters devices down to video inputs, keeping enumeration order
func VideoInputs(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Kind == KindVideoInput {
			out = append(out, d)
		}
	}
	return out
}

// Resolve enumerates the inventory once and selects a video input.
// There is no retry; a failed enumeration resolves to ErrDeviceUnavailable.
func Resolve(ctx context.Context, inv Inventory) (Device, error) {
	devices, err := inv.Devices(ctx)
	if err != nil {
		return Device{}, fmt.Errorf("%w: enumerating devices: %v", ErrDeviceUnavailable, err)
	}

	d, ok := Select(VideoInputs(devices))
	if !ok {
		return Device{}, ErrDeviceUnavailable
	}
	return d, nil
}
