package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"depthd/internal/config"
	"depthd/internal/device"
	"depthd/internal/httpapi"
	"depthd/internal/manager"
	"depthd/internal/registry"
	"depthd/internal/splat"
	"depthd/internal/video"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "depthd",
		Short:         "Image-to-depth and image-to-3D conversion service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		addr       string
		configPath string
		cacheDir   string
		ckptDir    string
		defModel   string
		depthBin   string
		splatBin   string
		idleSec    int
		tickSec    int
		logLevel   string
	)
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{}
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			// Flags win over the config file; both fall back to env defaults.
			if cfg.Addr == "" || addr != ":8080" {
				cfg.Addr = addr
			}
			if cacheDir != "" {
				cfg.CacheDir = cacheDir
			}
			if ckptDir != "" {
				cfg.CheckpointDir = ckptDir
			}
			if defModel != "" {
				cfg.DefaultModel = defModel
			}
			if depthBin != "" {
				cfg.DepthBin = depthBin
			}
			if splatBin != "" {
				cfg.SplatBin = splatBin
			}
			if idleSec > 0 {
				cfg.IdleTimeoutSec = idleSec
			}
			if tickSec > 0 {
				cfg.IdleTickSec = tickSec
			}
			return serveMain(cfg, logLevel)
		},
	}
	serve.Flags().StringVar(&addr, "addr", envDefault("DEPTHD_ADDR", ":8080"), "HTTP listen address")
	serve.Flags().StringVar(&configPath, "config", os.Getenv("DEPTHD_CONFIG"), "Config file (yaml/json/toml)")
	serve.Flags().StringVar(&cacheDir, "cache-dir", os.Getenv("DEPTHD_CACHE_DIR"), "Model weight cache directory")
	serve.Flags().StringVar(&ckptDir, "checkpoint-dir", os.Getenv("DEPTHD_CHECKPOINT_DIR"), "Splat checkpoint directory")
	serve.Flags().StringVar(&defModel, "default-model", os.Getenv("DEPTHD_DEFAULT_MODEL"), "Depth variant when requests omit one")
	serve.Flags().StringVar(&depthBin, "depth-bin", os.Getenv("DEPTHD_DEPTH_BIN"), "Depth inference CLI binary")
	serve.Flags().StringVar(&splatBin, "splat-bin", os.Getenv("DEPTHD_SPLAT_BIN"), "Splat inference CLI binary")
	serve.Flags().IntVar(&idleSec, "idle-timeout-sec", 0, "Evict resident models after this many idle seconds")
	serve.Flags().IntVar(&tickSec, "idle-tick-sec", 0, "Idle monitor check interval in seconds")
	serve.Flags().StringVar(&logLevel, "log-level", envDefault("DEPTHD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.AddCommand(serve)

	return root
}

func serveMain(cfg config.Config, logLevel string) error {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	if cfg.CacheDir == "" {
		cfg.CacheDir = "~/.cache/huggingface/hub"
	}
	if cfg.CheckpointDir == "" {
		cfg.CheckpointDir = "~/.cache/torch/hub/checkpoints"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "small"
	}
	if cfg.DepthBin == "" {
		cfg.DepthBin = "depth-anything"
	}

	cat, err := registry.New(registry.DefaultVariants(), cfg.DefaultModel)
	if err != nil {
		return err
	}
	cache, err := registry.NewCache(cfg.CacheDir)
	if err != nil {
		return err
	}
	selector := device.NewSelector(log)

	mgr := manager.New(manager.Config{
		Catalog:     cat,
		Cache:       cache,
		Selector:    selector,
		Factory:     manager.NewToolFactory(cfg.DepthBin, cache, log),
		IdleTimeout: time.Duration(cfg.IdleTimeoutSec) * time.Second,
		IdleTick:    time.Duration(cfg.IdleTickSec) * time.Second,
		Log:         log,
	})
	sp := splat.New(splat.Config{
		Bin:           cfg.SplatBin,
		CheckpointDir: cfg.CheckpointDir,
		Selector:      selector,
		IdleTimeout:   time.Duration(cfg.IdleTimeoutSec) * time.Second,
		IdleTick:      time.Duration(cfg.IdleTickSec) * time.Second,
		Log:           log,
	})
	proc := video.NewProcessor(mgr, video.NewTools(log), log)

	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()
	mgr.StartIdleMonitor(baseCtx)
	sp.StartIdleMonitor(baseCtx)

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(baseCtx)
	if cfg.MaxUploadMB > 0 {
		httpapi.SetMaxUploadBytes(int64(cfg.MaxUploadMB) << 20)
	}
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "POST", "DELETE", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Request-Id"})
	}

	mux := httpapi.NewMux(httpapi.Services{Depth: mgr, Splat: sp, Video: proc})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("cache_dir", cache.Dir()).Msg("depthd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	stopBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	if loaded := mgr.Loaded(); loaded {
		mgr.Unload()
	}
	return nil
}
