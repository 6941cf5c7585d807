package wm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Sway speaks i3-ipc over the socket named by $SWAYSOCK.
// Every failure is returned to the caller.
type Sway struct {
	SocketPath string
}

func (s *Sway) Name() string { return BackendSway }

func (s *Sway) socketPath() (string, error) {
	if s.SocketPath != "" {
		return s.SocketPath, nil
	}
	if path := os.Getenv("SWAYSOCK"); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: SWAYSOCK is not set", ErrNoCompositor)
}

func (s *Sway) request(ctx context.Context, typ uint32, payload []byte) ([]byte, error) {
	path, err := s.socketPath()
	if err != nil {
		return nil, err
	}
	conn, err := dialUnix(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sway: %w", err)
	}
	defer conn.Close()
	defer closeOnDone(ctx, conn)()

	if err := writeIPC(conn, typ, payload); err != nil {
		return nil, fmt.Errorf("failed to send sway request: %w", err)
	}
	replyType, reply, err := readIPC(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read sway reply: %w", err)
	}
	if replyType != typ {
		return nil, fmt.Errorf("unexpected sway reply type %d for request %d", replyType, typ)
	}
	return reply, nil
}

func (s *Sway) FetchWorkspaces(ctx context.Context) ([]string, error) {
	reply, err := s.request(ctx, ipcGetWorkspaces, nil)
	if err != nil {
		return nil, err
	}
	var workspaces []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(reply, &workspaces); err != nil {
		return nil, fmt.Errorf("malformed sway workspaces reply: %w", err)
	}
	names := make([]string, 0, len(workspaces))
	for _, w := range workspaces {
		names = append(names, w.Name)
	}
	return names, nil
}

// Displays lists active outputs
func (s *Sway) Displays(ctx context.Context) ([]Display, error) {
	reply, err := s.request(ctx, ipcGetOutputs, nil)
	if err != nil {
		return nil, err
	}
	var outputs []struct {
		Name   string `json:"name"`
		Make   string `json:"make"`
		Model  string `json:"model"`
		Active bool   `json:"active"`
	}
	if err := json.Unmarshal(reply, &outputs); err != nil {
		return nil, fmt.Errorf("malformed sway outputs reply: %w", err)
	}
	displays := make([]Display, 0, len(outputs))
	for _, o := range outputs {
		if !o.Active {
			continue
		}
		displays = append(displays, Display{
			Connector:   o.Name,
			Description: strings.TrimSpace(o.Make + " " + o.Model),
		})
	}
	return displays, nil
}

// Watch subscribes to output events
func (s *Sway) Watch(ctx context.Context, onChange func()) error {
	path, err := s.socketPath()
	if err != nil {
		return err
	}
	conn, err := dialUnix(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to connect to sway: %w", err)
	}
	defer conn.Close()
	defer closeOnDone(ctx, conn)()

	if err := writeIPC(conn, ipcSubscribe, []byte(`["output"]`)); err != nil {
		return fmt.Errorf("failed to subscribe to sway events: %w", err)
	}
	_, reply, err := readIPC(conn)
	if err != nil {
		return fmt.Errorf("failed to read sway subscribe reply: %w", err)
	}
	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(reply, &result); err != nil || !result.Success {
		return fmt.Errorf("sway rejected output subscription: %s", reply)
	}

	for {
		typ, _, err := readIPC(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sway event stream closed: %w", err)
		}
		if typ == ipcEventOutput {
			onChange()
		}
	}
}
