package conf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// DefaultRefreshInterval is the metrics refresh cadence when none is configured
const DefaultRefreshInterval = 2 * time.Second

var (
	Path string       // Config path
	mu   sync.RWMutex // Protects access to Conf
	Conf = Default()
)

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: Server{
			Addr: "127.0.0.1:7780",
		},
		Web: Web{
			RootPath: "web",
		},
		Metrics: Metrics{
			RefreshIntervalMs: DefaultRefreshInterval.Milliseconds(),
		},
		Log: Log{
			Level: "info",
		},
	}
}

// LoadConfig Set Path and load config into memory
// Run this at start. A missing file is created holding the defaults.
func LoadConfig(path string) error {
	mu.Lock()
	Path = path
	mu.Unlock()

	err := Update()
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return Write(Default())
	}
	return fmt.Errorf("failed to load config: %w", err)
}

// Update reads the config file and loads it into the global Conf variable
func Update() error {
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(Path); err != nil {
		return err
	}
	next := Default()
	if _, err := toml.DecodeFile(Path, &next); err != nil {
		return fmt.Errorf("failed to decode %s: %w", Path, err)
	}
	Conf = next
	return nil
}

// Write saves the provided config to the TOML file at the global Path
func Write(conf Config) error {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.Create(Path)
	if err != nil {
		return fmt.Errorf("failed to create config file %w", err)
	}
	defer f.Close()
	if err = toml.NewEncoder(f).Encode(conf); err != nil {
		return fmt.Errorf("failed to write config file %w", err)
	}

	Conf = conf
	return nil
}

// Read returns a copy of the current configuration
func Read() Config {
	mu.RLock()
	defer mu.RUnlock()

	conf := Conf
	conf.Shell.Command = append([]string(nil), Conf.Shell.Command...)
	return conf
}

// GetServer returns the Server config in a thread-safe manner
func GetServer() Server {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Server
}

// GetWeb returns the Web config in a thread-safe manner
func GetWeb() Web {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Web
}

// GetWM returns the WM config in a thread-safe manner
func GetWM() WM {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.WM
}

// GetShellCommand returns a copy of the shell command template
func GetShellCommand() []string {
	mu.RLock()
	defer mu.RUnlock()
	return append([]string(nil), Conf.Shell.Command...)
}

// GetLogLevel returns the configured log level name
func GetLogLevel() string {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Log.Level
}

// GetRefreshInterval returns the metrics refresh interval.
// Non-positive values fall back to DefaultRefreshInterval.
func GetRefreshInterval() time.Duration {
	mu.RLock()
	ms := Conf.Metrics.RefreshIntervalMs
	mu.RUnlock()

	if ms <= 0 {
		return DefaultRefreshInterval
	}
	return cast.ToDuration(ms) * time.Millisecond
}
