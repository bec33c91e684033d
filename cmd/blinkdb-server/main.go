// Package main provides the entry point for blinkdb-server, an in-memory
// key-value store speaking RESP-2 with bounded-memory LRU eviction.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/blinkdb/blinkdb/internal/buildinfo"
	"github.com/blinkdb/blinkdb/internal/config"
	"github.com/blinkdb/blinkdb/internal/dispatcher"
	"github.com/blinkdb/blinkdb/internal/engine"
	"github.com/blinkdb/blinkdb/internal/httpserver"
	"github.com/blinkdb/blinkdb/internal/infra/confloader"
	"github.com/blinkdb/blinkdb/internal/shutdown"
	"github.com/blinkdb/blinkdb/internal/telemetry/logger"
	"github.com/blinkdb/blinkdb/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:      "blinkdb-server",
		Usage:     "an in-memory, RESP-2 key-value store with bounded-memory LRU eviction",
		Version:   buildinfo.String(),
		ArgsUsage: "[port]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration file"},
			&cli.Int64Flag{Name: "max-memory", Usage: "engine memory budget in bytes"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, or error"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		if errors.Is(err, errInvalidPort) {
			c.App.Writer = os.Stderr
			cli.ShowAppHelp(c)
		}
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting blinkdb-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"addr", cfg.Server.Addr,
		"max_memory_bytes", cfg.Engine.MaxMemoryBytes)

	metrics := metric.NewRegistry()
	metrics.SetBuildInfo(buildinfo.Version, buildinfo.Commit)

	eng := engine.New(cfg.Engine.MaxMemoryBytes, engine.WithEvictionObserver(func(key string, size int) {
		metrics.IncEvictions(1)
		log.Debug("evicted key", "key", key, "size", size)
	}))

	disp, err := dispatcher.New(dispatcher.Config{
		Addr:                   cfg.Server.Addr,
		IdleTimeout:            cfg.Server.IdleTimeout,
		BackpressureLimitBytes: cfg.Server.BackpressureLimitBytes,
		RateLimit:              cfg.Server.RateLimit,
		RateLimitBurst:         cfg.Server.RateLimitBurst,
	}, eng, metrics, log)
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(10 * time.Second)

	var httpSrv *httpserver.Server
	if cfg.Metrics.Addr != "" {
		httpSrv = httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(disp, metrics))
	}

	watcher, err := startConfigWatcher(c, eng, disp, log)
	if err != nil {
		return fmt.Errorf("init config watcher: %w", err)
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		if httpSrv == nil {
			return nil
		}
		log.Info("shutting down HTTP sidecar")
		return httpSrv.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown(func(_ context.Context) error {
		log.Info("shutting down dispatcher")
		return disp.Shutdown()
	})
	shutdownHandler.OnShutdown(func(_ context.Context) error {
		if watcher == nil {
			return nil
		}
		return watcher.Stop()
	})

	dispErrCh := make(chan error, 1)
	go func() { dispErrCh <- disp.Run() }()

	if httpSrv != nil {
		go func() {
			log.Info("HTTP sidecar listening", "addr", cfg.Metrics.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP sidecar error", "error", err)
			}
		}()
	}

	log.Info("server started, press Ctrl+C to stop", "addr", cfg.Server.Addr)
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	if err := <-dispErrCh; err != nil {
		log.Error("dispatcher exited with error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig builds the effective configuration from defaults, an
// optional file, environment variables, and CLI flags/positional
// arguments, in that increasing order of precedence
// (internal/infra/confloader's Flag > Env > File > Default).
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if port := c.Args().First(); port != "" {
		addr, err := applyPortArg(cfg.Server.Addr, port)
		if err != nil {
			return nil, err
		}
		cfg.Server.Addr = addr
	}
	if c.IsSet("max-memory") {
		cfg.Engine.MaxMemoryBytes = c.Int64("max-memory")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// errInvalidPort marks a positional port argument outside 1-65535 or not
// an integer, so run() can show CLI usage before exiting (spec.md §6).
var errInvalidPort = errors.New("invalid port")

// applyPortArg validates the CLI's optional positional port argument
// (spec.md §6: default 9001, valid range 1-65535, invalid prints usage
// and exits non-zero) and merges it into addr, keeping addr's host.
func applyPortArg(addr, portArg string) (string, error) {
	port, err := strconv.Atoi(portArg)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("%w %q: must be an integer in 1-65535", errInvalidPort, portArg)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// startConfigWatcher wires internal/infra/confloader's fsnotify-based
// watcher, when a config file is given, to hot-reload MaxMemoryBytes and
// RateLimit/RateLimitBurst without restart. Static fields such as the
// listen address are not hot-reloadable; a reload is logged either way.
func startConfigWatcher(c *cli.Context, eng *engine.Engine, disp *dispatcher.Dispatcher, log logger.Logger) (*confloader.Watcher, error) {
	path := c.String("config")
	if path == "" {
		return nil, nil
	}

	w, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		return nil, err
	}

	w.OnChange(func(changed string) {
		reloaded := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(reloaded); err != nil {
			log.Warn("config reload failed", "file", changed, "error", err)
			return
		}
		if err := config.Verify(reloaded); err != nil {
			log.Warn("reloaded config is invalid, ignoring", "file", changed, "error", err)
			return
		}

		eng.SetMaxMemory(reloaded.Engine.MaxMemoryBytes)
		disp.SetRateLimit(reloaded.Server.RateLimit, reloaded.Server.RateLimitBurst)
		log.Info("config reloaded",
			"max_memory_bytes", reloaded.Engine.MaxMemoryBytes,
			"rate_limit", reloaded.Server.RateLimit)
	})

	w.StartAsync()
	return w, nil
}
