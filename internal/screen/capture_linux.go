//go:build linux

package screen

import (
	"context"
	"os/exec"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

type linuxBackend struct {
	lookPath func(string) (string, error)
}

// gnome-screenshot first, then scrot
func (l linuxBackend) command(ctx context.Context, path string) (*exec.Cmd, error) {
	if _, err := l.lookPath("gnome-screenshot"); err == nil {
		return exec.CommandContext(ctx, "gnome-screenshot", "-f", path), nil
	}
	if _, err := l.lookPath("scrot"); err == nil {
		return exec.CommandContext(ctx, "scrot", "-o", path), nil
	}
	return nil, apperrors.New(apperrors.Unavailable, "no screenshot tool found (install gnome-screenshot or scrot)")
}

// New creates a platform-specific screen capturer
func New() Capturer { return newBase(linuxBackend{lookPath: exec.LookPath}) }
