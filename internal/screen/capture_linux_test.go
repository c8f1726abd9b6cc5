//go:build linux

package screen

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

func TestLinuxBackendToolSelection(t *testing.T) {
	tests := []struct {
		name      string
		available map[string]bool
		wantTool  string
		wantKind  apperrors.Kind
	}{
		{"gnome preferred", map[string]bool{"gnome-screenshot": true, "scrot": true}, "gnome-screenshot", 0},
		{"scrot fallback", map[string]bool{"scrot": true}, "scrot", 0},
		{"nothing installed", map[string]bool{}, "", apperrors.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := linuxBackend{lookPath: func(name string) (string, error) {
				if tt.available[name] {
					return "/usr/bin/" + name, nil
				}
				return "", errors.New("not found")
			}}
			cmd, err := b.command(context.Background(), "/tmp/x.png")
			if tt.wantTool == "" {
				if !apperrors.IsKind(err, tt.wantKind) {
					t.Errorf("command() error = %v, want %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if cmd.Args[0] != tt.wantTool {
				t.Errorf("tool = %q, want %q", cmd.Args[0], tt.wantTool)
			}
		})
	}
}
