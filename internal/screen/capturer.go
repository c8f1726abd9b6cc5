// Package screen provides platform-agnostic screen capture
package screen

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

// Capturer takes PNG screenshots of the primary display.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
	Close()
}

// backend builds the platform command that writes a PNG to path.
type backend interface {
	command(ctx context.Context, path string) (*exec.Cmd, error)
}

// baseCapturer runs a backend command into a private temp dir and reads the result.
type baseCapturer struct {
	backend
	tempDir string
}

func newBase(b backend) *baseCapturer {
	tmpDir, err := os.MkdirTemp("", "screentutor-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return &baseCapturer{backend: b, tempDir: tmpDir}
}

func (c *baseCapturer) Capture(ctx context.Context) ([]byte, error) {
	tmpFile := filepath.Join(c.tempDir, ScreenshotFile)
	cmd, err := c.command(ctx, tmpFile)
	if err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(ctx.Err(), apperrors.KindOf(ctx.Err()), "screenshot interrupted")
		}
		return nil, apperrors.Wrap(err, apperrors.Internal, "screenshot command failed").
			WithMetadata("stderr", stderr.String())
	}
	defer os.Remove(tmpFile)

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "read screenshot")
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.EmptyInput, "screenshot is empty")
	}
	return data, nil
}

func (c *baseCapturer) Close() {
	if c.tempDir != "" && c.tempDir != os.TempDir() {
		os.RemoveAll(c.tempDir)
	}
}
