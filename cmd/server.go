package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"waybarx/internal/auth"
	"waybarx/internal/conf"
	"waybarx/internal/log"
	"waybarx/internal/monitor"
	"waybarx/internal/netx"
	"waybarx/internal/system"
	"waybarx/internal/web"
	"waybarx/internal/wm"
)

var (
	configPath string
	debug      bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "waybarx",
		Short:        "Native host for per-display web status panels",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&configPath, "config", "c", "config.toml", "Path to the TOML configuration file")
	pflags.BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func run(ctx context.Context) error {
	if err := conf.LoadConfig(configPath); err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		return err
	}
	log.SetLevel(conf.GetLogLevel())
	if debug {
		log.SetDebugMode()
	}
	log.Debug().Str("path", configPath).Interface("config", conf.Read()).Msg("configuration loaded")

	if summary, err := system.HostSummary(ctx); err == nil {
		log.Info().Str("host", summary).Msg("starting waybarx")
	}

	backend, err := wm.New(conf.GetWM().Backend)
	if err != nil {
		log.Warn().Err(err).Msg("no compositor backend, workspaces unavailable")
	} else {
		log.Info().Str("backend", backend.Name()).Msg("compositor backend selected")
	}

	provider := system.NewProvider(system.HostSampler{})

	sock := &netx.Socket{}
	sock.Initialize()
	tokens := auth.NewTokenStore()

	addr := conf.GetServer().Addr
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("failed to listen")
		return err
	}

	var adapter wm.Adapter
	var source wm.DisplaySource
	if backend != nil {
		adapter, source = backend, backend
	}

	panels := web.NewPanelServer(sock, tokens, provider, adapter, "http://"+listener.Addr().String(), conf.GetShellCommand())
	manager := monitor.NewManager(source, panels)

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", sock.Handler())
	web.StartAssets(mux)
	web.StartAPI(mux, tokens, panels)
	web.StartIndex(mux)

	server := &http.Server{Handler: mux}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", listener.Addr().String()).Msg("panel server listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		provider.Run(gctx, conf.GetRefreshInterval())
		return nil
	})
	g.Go(func() error {
		if err := manager.Activate(gctx); err != nil {
			log.Warn().Err(err).Msg("initial panel scan incomplete")
		}
		if err := manager.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("hot-plug watch stopped")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("waybarx stopped")
	return err
}
