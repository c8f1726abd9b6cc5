package screen

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"

	screencap "github.com/GriffinCanCode/screentutor/internal/screen"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Shot is one screenshot prepared for the response model.
type Shot struct {
	Base64     string
	Size       int
	Distance   int  // pHash distance to the previous shot, -1 when unknown
	SameScreen bool // distance within MaxHashDistance
}

// DataURL returns the shot as an inline PNG URL.
func (s Shot) DataURL() string {
	return "data:image/png;base64," + s.Base64
}

// Processor takes screenshots on demand and tracks screen changes.
type Processor struct {
	capturer screencap.Capturer

	mu       sync.Mutex
	lastHash *goimagehash.ImageHash
}

// NewProcessor creates a screen processor.
func NewProcessor(capturer screencap.Capturer) *Processor {
	return &Processor{capturer: capturer}
}

// Grab captures the screen and encodes it as base64.
func (p *Processor) Grab(ctx context.Context) (Shot, error) {
	data, err := p.capturer.Capture(ctx)
	if err != nil {
		return Shot{}, err
	}

	shot := Shot{
		Base64:   base64.StdEncoding.EncodeToString(data),
		Size:     len(data),
		Distance: p.compare(data),
	}
	shot.SameScreen = shot.Distance >= 0 && shot.Distance <= MaxHashDistance
	trace.Logger(ctx).Debug("screenshot captured", "bytes", shot.Size, "distance", shot.Distance, "same_screen", shot.SameScreen)
	return shot, nil
}

// compare computes the pHash distance to the previous frame and remembers this one.
func (p *Processor) compare(imgData []byte) int {
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		slog.Debug("screenshot decode failed", "error", err)
		return -1
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return -1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.lastHash
	p.lastHash = hash
	if prev == nil {
		return -1
	}
	dist, err := prev.Distance(hash)
	if err != nil {
		return -1
	}
	return dist
}

// Close releases the capturer.
func (p *Processor) Close() {
	p.capturer.Close()
}
