// Package bridge implements the request/response channel between a panel's
// web UI and the native host.
package bridge

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"waybarx/internal/log"
	"waybarx/internal/system"
	"waybarx/internal/wm"
)

// InfoSource supplies the cached telemetry snapshot
type InfoSource interface {
	Info() (*system.SystemInfo, bool)
}

// Surface evaluates a script inside the panel's web view.
// Delivery is fire-and-forget.
type Surface interface {
	EvaluateJavaScript(script string)
}

// SurfaceFunc adapts a function to Surface
type SurfaceFunc func(script string)

func (f SurfaceFunc) EvaluateJavaScript(script string) { f(script) }

// Bridge decodes UI messages and answers each exactly once through its Surface
type Bridge struct {
	info    InfoSource
	adapter wm.Adapter
	surface Surface
	logger  zerolog.Logger
}

func New(info InfoSource, adapter wm.Adapter, surface Surface) *Bridge {
	return &Bridge{
		info:    info,
		adapter: adapter,
		surface: surface,
		logger:  log.With("bridge"),
	}
}

// Handle answers payload asynchronously and returns immediately.
// Responses to different messages may arrive in any order.
func (b *Bridge) Handle(payload string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error().Interface("panic", r).Str("payload", payload).Msg("command handler panicked")
				b.deliver(Response{OK: false, Error: "internal error", Echo: &payload})
			}
		}()
		b.deliver(b.Respond(context.Background(), payload))
	}()
}

// Respond decodes payload and runs the command it names.
// Payloads that are not JSON objects, or carry no string "cmd", are echoed back.
func (b *Bridge) Respond(ctx context.Context, payload string) Response {
	var envelope map[string]any
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil || envelope == nil {
		return echo(payload)
	}
	cmd, ok := envelope["cmd"].(string)
	if !ok {
		return echo(payload)
	}

	b.logger.Debug().Str("cmd", cmd).Msg("command received")
	switch cmd {
	case CmdGetWorkspaces:
		return b.workspaces(ctx)
	case CmdGetSystemInfo:
		return b.systemInfo()
	default:
		return unknown(payload)
	}
}

func (b *Bridge) workspaces(ctx context.Context) Response {
	if b.adapter == nil {
		return Response{OK: false, Cmd: RespWorkspaces, Error: wm.ErrNoCompositor.Error()}
	}
	names, err := b.adapter.FetchWorkspaces(ctx)
	if err != nil {
		return Response{OK: false, Cmd: RespWorkspaces, Error: err.Error()}
	}
	if names == nil {
		names = []string{}
	}
	return Response{OK: true, Cmd: RespWorkspaces, Data: names}
}

func (b *Bridge) systemInfo() Response {
	if b.info != nil {
		if info, ok := b.info.Info(); ok {
			return Response{OK: true, Cmd: RespSystemInfo, Data: info}
		}
	}
	return Response{OK: false, Cmd: RespSystemInfo, Error: ErrNoSystemInfo}
}

func (b *Bridge) deliver(resp Response) {
	script, err := Script(resp)
	if err != nil {
		b.logger.Error().Err(err).Msg("dropping undeliverable response")
		return
	}
	if b.surface != nil {
		b.surface.EvaluateJavaScript(script)
	}
}
