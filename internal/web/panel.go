package web

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"waybarx/internal/auth"
	"waybarx/internal/bridge"
	"waybarx/internal/log"
	"waybarx/internal/netx"
	"waybarx/internal/wm"
)

const (
	// EventNative carries a raw payload from the panel UI
	EventNative = "native"
	// EventEvaluate carries a script for the panel's web view to run
	EventEvaluate = "evaluate"
)

// Panel is the host side of one display's panel
type Panel struct {
	Connector   string `json:"connector"`
	Description string `json:"description,omitempty"`
	Namespace   string `json:"namespace"`
	URL         string `json:"-"`

	token  string
	bridge *bridge.Bridge
}

// PanelServer spawns panels as Socket.IO namespaces on a shared server
type PanelServer struct {
	server  *netx.Socket
	tokens  *auth.TokenStore
	info    bridge.InfoSource
	adapter wm.Adapter
	baseURL string
	shell   []string
	logger  zerolog.Logger

	mu     sync.Mutex
	panels map[string]*Panel
}

func NewPanelServer(server *netx.Socket, tokens *auth.TokenStore, info bridge.InfoSource, adapter wm.Adapter, baseURL string, shell []string) *PanelServer {
	return &PanelServer{
		server:  server,
		tokens:  tokens,
		info:    info,
		adapter: adapter,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		shell:   shell,
		logger:  log.With("panel"),
		panels:  make(map[string]*Panel),
	}
}

// NamespaceFor returns the Socket.IO namespace serving connector
func NamespaceFor(connector string) string {
	return "/panel/" + url.PathEscape(connector)
}

// Spawn creates the panel for display and launches the shell command, if any.
// A panel whose shell fails to start is kept so a retry only relaunches the shell.
func (s *PanelServer) Spawn(display wm.Display) error {
	panel, err := s.panel(display)
	if err != nil {
		return err
	}

	if len(s.shell) == 0 {
		s.logger.Info().Str("connector", display.Connector).Str("url", panel.URL).Msg("panel ready")
		return nil
	}
	if err := s.launch(panel); err != nil {
		return fmt.Errorf("failed to launch shell for %s: %w", display.Connector, err)
	}
	return nil
}

func (s *PanelServer) panel(display wm.Display) (*Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if panel, ok := s.panels[display.Connector]; ok {
		return panel, nil
	}

	token, err := s.tokens.Issue(display.Connector)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token for %s: %w", display.Connector, err)
	}

	panel := &Panel{
		Connector:   display.Connector,
		Description: display.Description,
		Namespace:   NamespaceFor(display.Connector),
		URL:         PanelURL(s.baseURL, display.Connector, token),
		token:       token,
	}

	ns := s.server.AddNamespace(panel.Namespace)
	panel.bridge = bridge.New(s.info, s.adapter, namespaceSurface{ns: ns, logger: s.logger})
	ns.AddMiddleware(auth.RequirePanelToken(s.tokens, display.Connector))
	ns.AddEvent(EventNative, func(client *socket.Socket, data ...any) {
		panel.bridge.Handle(payloadFrom(data...))
	})
	ns.RegisterEvents()

	s.panels[display.Connector] = panel
	return panel, nil
}

// launch starts the shell with a freshly issued token. The token dies with
// the shell, so a page left open by an exited shell can no longer reach the bridge.
func (s *PanelServer) launch(panel *Panel) error {
	token, panelURL, err := s.rotate(panel)
	if err != nil {
		return err
	}

	args := ShellArgs(s.shell, panelURL, panel.Connector)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	s.logger.Info().Str("connector", panel.Connector).Int("pid", cmd.Process.Pid).Msg("panel shell started")

	go func() {
		err := cmd.Wait()
		s.tokens.Revoke(token)
		if err != nil {
			s.logger.Warn().Err(err).Str("connector", panel.Connector).Msg("panel shell exited")
			return
		}
		s.logger.Info().Str("connector", panel.Connector).Msg("panel shell exited")
	}()
	return nil
}

// rotate replaces the panel token and revokes the previous one
func (s *PanelServer) rotate(panel *Panel) (string, string, error) {
	token, err := s.tokens.Issue(panel.Connector)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue token for %s: %w", panel.Connector, err)
	}

	s.mu.Lock()
	previous := panel.token
	panel.token = token
	panel.URL = PanelURL(s.baseURL, panel.Connector, token)
	panelURL := panel.URL
	s.mu.Unlock()

	s.tokens.Revoke(previous)
	return token, panelURL, nil
}

// Panels lists spawned panels ordered by connector
func (s *PanelServer) Panels() []Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	panels := make([]Panel, 0, len(s.panels))
	for _, p := range s.panels {
		panels = append(panels, *p)
	}
	sort.Slice(panels, func(i, j int) bool { return panels[i].Connector < panels[j].Connector })
	return panels
}

// PanelURL is the page the panel's web view loads
func PanelURL(baseURL, connector, token string) string {
	query := url.Values{}
	query.Set("monitor", connector)
	query.Set("token", token)
	return baseURL + "/?" + query.Encode()
}

// ShellArgs substitutes {url} and {connector} in the configured command
func ShellArgs(command []string, panelURL, connector string) []string {
	replacer := strings.NewReplacer("{url}", panelURL, "{connector}", connector)
	args := make([]string, len(command))
	for i, arg := range command {
		args[i] = replacer.Replace(arg)
	}
	return args
}

// payloadFrom recovers the raw message text from a native event.
// Non-string payloads are re-encoded as JSON.
func payloadFrom(data ...any) string {
	if len(data) == 0 {
		return ""
	}
	switch v := data[0].(type) {
	case string:
		return v
	case []any:
		return payloadFrom(v...)
	case nil:
		return "null"
	}
	if encoded, err := json.Marshal(data[0]); err == nil {
		return string(encoded)
	}
	return cast.ToString(data[0])
}

type namespaceSurface struct {
	ns     *netx.Namespace
	logger zerolog.Logger
}

func (n namespaceSurface) EvaluateJavaScript(script string) {
	if err := n.ns.Emit(EventEvaluate, script); err != nil {
		n.logger.Warn().Err(err).Msg("failed to deliver script")
	}
}
