package wm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"waybarx/internal/log"
)

// Hyprland queries the compositor's request socket directly.
// FetchWorkspaces never fails: any error yields an empty list.
type Hyprland struct {
	// SocketDir holds .socket.sock and .socket2.sock; resolved from the
	// environment when empty
	SocketDir string
}

func (h *Hyprland) Name() string { return BackendHyprland }

func (h *Hyprland) socketDir() (string, error) {
	if h.SocketDir != "" {
		return h.SocketDir, nil
	}
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", fmt.Errorf("%w: HYPRLAND_INSTANCE_SIGNATURE is not set", ErrNoCompositor)
	}
	var candidates []string
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		candidates = append(candidates, filepath.Join(runtime, "hypr", sig))
	}
	candidates = append(candidates, filepath.Join("/tmp", "hypr", sig))
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, ".socket.sock")); err == nil {
			return dir, nil
		}
	}
	return candidates[0], nil
}

func (h *Hyprland) request(ctx context.Context, command string) ([]byte, error) {
	dir, err := h.socketDir()
	if err != nil {
		return nil, err
	}
	conn, err := dialUnix(ctx, filepath.Join(dir, ".socket.sock"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hyprland: %w", err)
	}
	defer conn.Close()
	defer closeOnDone(ctx, conn)()

	if _, err := io.WriteString(conn, command); err != nil {
		return nil, fmt.Errorf("failed to send hyprland request: %w", err)
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read hyprland reply: %w", err)
	}
	return reply, nil
}

func (h *Hyprland) workspaces(ctx context.Context) ([]string, error) {
	reply, err := h.request(ctx, "j/workspaces")
	if err != nil {
		return nil, err
	}
	var workspaces []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(reply, &workspaces); err != nil {
		return nil, fmt.Errorf("malformed hyprland workspaces reply: %w", err)
	}
	names := make([]string, 0, len(workspaces))
	for _, w := range workspaces {
		names = append(names, w.Name)
	}
	return names, nil
}

func (h *Hyprland) FetchWorkspaces(ctx context.Context) ([]string, error) {
	names, err := h.workspaces(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("hyprland workspaces unavailable, reporting none")
		return []string{}, nil
	}
	return names, nil
}

// Displays lists enabled monitors. Errors are returned.
func (h *Hyprland) Displays(ctx context.Context) ([]Display, error) {
	reply, err := h.request(ctx, "j/monitors")
	if err != nil {
		return nil, err
	}
	var monitors []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Disabled    bool   `json:"disabled"`
	}
	if err := json.Unmarshal(reply, &monitors); err != nil {
		return nil, fmt.Errorf("malformed hyprland monitors reply: %w", err)
	}
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		if m.Disabled {
			continue
		}
		displays = append(displays, Display{Connector: m.Name, Description: m.Description})
	}
	return displays, nil
}

// monitor events on the socket2 stream, formatted "event>>data"
var hyprMonitorEvents = map[string]struct{}{
	"monitoradded":     {},
	"monitoraddedv2":   {},
	"monitorremoved":   {},
	"monitorremovedv2": {},
}

// Watch reads the event socket and reports monitor changes
func (h *Hyprland) Watch(ctx context.Context, onChange func()) error {
	dir, err := h.socketDir()
	if err != nil {
		return err
	}
	conn, err := dialUnix(ctx, filepath.Join(dir, ".socket2.sock"))
	if err != nil {
		return fmt.Errorf("failed to connect to hyprland events: %w", err)
	}
	defer conn.Close()
	defer closeOnDone(ctx, conn)()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		event, _, _ := strings.Cut(scanner.Text(), ">>")
		if _, ok := hyprMonitorEvents[event]; ok {
			onChange()
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("hyprland event stream failed: %w", err)
	}
	return fmt.Errorf("hyprland event stream closed")
}
