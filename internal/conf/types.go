package conf

// Config mirrors config.toml, one table per section
type Config struct {
	Server  Server  `toml:"Server"`
	Web     Web     `toml:"Web"`
	Metrics Metrics `toml:"Metrics"`
	WM      WM      `toml:"WM"`
	Shell   Shell   `toml:"Shell"`
	Log     Log     `toml:"Log"`
}

type Server struct {
	Addr string
}

type Web struct {
	RootPath string
}

type Metrics struct {
	RefreshIntervalMs int64
}

// WM selects the compositor backend: "sway", "hyprland" or empty to detect
type WM struct {
	Backend string
}

// Shell is the native shell launched once per panel.
// Arguments may contain {url} and {connector} placeholders.
type Shell struct {
	Command []string
}

type Log struct {
	Level string
}
