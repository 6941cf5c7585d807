package bridge

import (
	"encoding/json"
	"fmt"
)

// Commands accepted from the panel UI
const (
	CmdGetWorkspaces = "get_workspaces"
	CmdGetSystemInfo = "get_system_info"
)

// Command names echoed in responses
const (
	RespWorkspaces = "workspaces"
	RespSystemInfo = "system_info"
)

const (
	ErrUnknownCommand = "unknown command"
	ErrNoSystemInfo   = "Failed to get system info"
)

// ReceiveFunction is the UI-side entry point every response is passed to
const ReceiveFunction = "window.__nativeReceive"

// Response is the envelope pushed back into the UI.
// There is no request id: the UI correlates on Cmd alone.
type Response struct {
	OK    bool    `json:"ok"`
	Cmd   string  `json:"cmd,omitempty"`
	Data  any     `json:"data,omitempty"`
	Error string  `json:"error,omitempty"`
	Echo  *string `json:"echo,omitempty"`
}

func echo(payload string) Response {
	return Response{OK: true, Echo: &payload}
}

func unknown(payload string) Response {
	return Response{OK: false, Error: ErrUnknownCommand, Echo: &payload}
}

// Script renders resp as the call injected into the web view
func Script(resp Response) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return fmt.Sprintf("%s && %s(%s);", ReceiveFunction, ReceiveFunction, data), nil
}
