// Package audio handles microphone capture and WAV encoding
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Frame is one fixed-duration block of mono signed 16-bit PCM.
type Frame struct {
	Samples   []int16
	Timestamp time.Time
}

// Bytes returns the frame as little-endian PCM.
func (f Frame) Bytes() []byte {
	buf := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// Gate reports whether frames should be read right now.
type Gate func() bool

// CaptureConfig configures the microphone stream.
type CaptureConfig struct {
	SampleRate    int
	FrameDuration time.Duration
	Device        string   // substring of the preferred device name
	Excluded      []string // substrings of device names never to open
	BufferSize    int      // frames buffered before dropping
}

// FrameSamples returns the number of samples per frame.
func (c CaptureConfig) FrameSamples() int {
	return int(int64(c.SampleRate) * int64(c.FrameDuration) / int64(time.Second))
}

// Capturer reads frames from one input device with backpressure.
type Capturer struct {
	cfg   CaptureConfig
	gate  Gate
	outCh chan Frame

	mu       sync.Mutex
	stream   *portaudio.Stream
	cancel   context.CancelFunc
	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewCapturer initializes portaudio. Frames are only read while gate returns true.
func NewCapturer(cfg CaptureConfig, gate Gate) (*Capturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultFrameBuffer
	}
	if gate == nil {
		gate = func() bool { return true }
	}
	return &Capturer{
		cfg:   cfg,
		gate:  gate,
		outCh: make(chan Frame, cfg.BufferSize),
	}, nil
}

// Output returns the channel for receiving frames.
func (c *Capturer) Output() <-chan Frame { return c.outCh }

// Start opens the selected device and begins reading.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	dev := pickDevice(devices, c.cfg.Device, c.cfg.Excluded)
	if dev == nil {
		if dev, err = portaudio.DefaultInputDevice(); err != nil {
			return err
		}
	}

	n := c.cfg.FrameSamples()
	buf := make([]int16, n)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(c.cfg.SampleRate),
		FramesPerBuffer: n,
	}, buf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.stream, c.cancel, c.done, c.running = stream, cancel, make(chan struct{}), true
	slog.Info("started audio capture", "device", dev.Name, "sample_rate", c.cfg.SampleRate, "frame_samples", n)

	go c.readLoop(runCtx, stream, buf, dev.Name)
	return nil
}

func (c *Capturer) readLoop(ctx context.Context, stream *portaudio.Stream, buf []int16, device string) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !c.gate() {
			time.Sleep(IdlePoll)
			continue
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				slog.Debug("audio input overflowed", "device", device)
				continue
			}
			slog.Warn("audio read error", "device", device, "error", err)
			return
		}

		frame := Frame{Samples: append([]int16(nil), buf...), Timestamp: time.Now()}
		select {
		case c.outCh <- frame:
		default:
			slog.Debug("audio buffer full, dropping frame", "device", device)
		}
	}
}

// Stop stops capture and releases portaudio.
func (c *Capturer) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
		if c.stream != nil {
			_ = c.stream.Stop()
			_ = c.stream.Close()
		}
		c.running = false
		_ = portaudio.Terminate()
	})
}

// pickDevice selects an input device: the configured name first, then a
// built-in microphone, then any remaining input device.
func pickDevice(devices []*portaudio.DeviceInfo, want string, excluded []string) *portaudio.DeviceInfo {
	var best *portaudio.DeviceInfo
	for _, dev := range devices {
		if dev == nil || dev.MaxInputChannels < 1 || isExcluded(dev.Name, excluded) {
			continue
		}
		if want != "" && containsFold(dev.Name, want) {
			return dev
		}
		if best == nil || preferDevice(dev.Name, best.Name) {
			best = dev
		}
	}
	if want != "" {
		return nil
	}
	return best
}

func isExcluded(name string, excluded []string) bool {
	for _, ex := range excluded {
		if containsFold(name, ex) {
			return true
		}
	}
	return false
}

// preferDevice prefers built-in microphones over external or virtual ones.
func preferDevice(name, current string) bool {
	for _, p := range []string{"macbook", "built-in", "microphone"} {
		if containsFold(name, p) && !containsFold(current, p) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
