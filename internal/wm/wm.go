// Package wm talks to the running compositor: it lists workspaces for the
// panel UI and enumerates displays for the monitor manager.
//
// Exactly one backend is active per process. The backends deliberately differ
// in how FetchWorkspaces fails: Sway returns the IPC error, Hyprland degrades
// to an empty list. Callers must not assume one policy.
package wm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrUnknownBackend = errors.New("unknown compositor backend")
	ErrNoCompositor   = errors.New("no supported compositor detected")
)

// Adapter fetches the current workspace names
type Adapter interface {
	FetchWorkspaces(ctx context.Context) ([]string, error)
}

// Display is one physical output known to the compositor
type Display struct {
	Connector   string `json:"connector"`
	Description string `json:"description,omitempty"`
}

// DisplaySource enumerates displays and reports when the set changes
type DisplaySource interface {
	Displays(ctx context.Context) ([]Display, error)
	// Watch blocks, calling onChange for every display change event,
	// until ctx is done or the event stream fails.
	Watch(ctx context.Context, onChange func()) error
}

// Backend is a compositor IPC implementation
type Backend interface {
	Adapter
	DisplaySource
	Name() string
}

const (
	BackendSway     = "sway"
	BackendHyprland = "hyprland"
)

// New returns the backend with the given name. An empty name detects the
// compositor from the environment.
func New(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Detect()
	case BackendSway:
		return &Sway{}, nil
	case BackendHyprland, "hypr":
		return &Hyprland{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Detect picks a backend from the compositor's environment variables
func Detect() (Backend, error) {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return &Hyprland{}, nil
	}
	if os.Getenv("SWAYSOCK") != "" {
		return &Sway{}, nil
	}
	return nil, ErrNoCompositor
}
