package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/textmock/textmock/pkg/config"
	"github.com/textmock/textmock/pkg/engine"
	"github.com/textmock/textmock/pkg/logging"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests.
const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	configPath string
	host       string
	port       int
	watch      bool
	logLevel   string
	logFormat  string
	noMetrics  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve [mock-file...]",
	Short: "Start the mock server",
	Long: `Start the mock server. Mock files can be passed as arguments or
configured via a YAML configuration file with glob patterns.`,
	Example: `  # Serve a single mock file on the default port
  textmock serve api.mock

  # Serve every mock file under ./mocks on port 8080, reloading on change
  textmock serve --port 8080 --watch 'mocks/**/*.mock'

  # Use a configuration file
  textmock serve --config textmock.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.configPath, "config", "c", "", "path to YAML configuration file")
	f.StringVar(&serveFlags.host, "host", "", "host to bind")
	f.IntVarP(&serveFlags.port, "port", "p", config.DefaultPort, "port to listen on")
	f.BoolVarP(&serveFlags.watch, "watch", "w", false, "reload mock files when they change")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&serveFlags.logFormat, "log-format", "", "log format (text, json)")
	f.BoolVar(&serveFlags.noMetrics, "no-metrics", false, "disable Prometheus metrics")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	files, err := cfg.DiscoverMocks()
	if err != nil {
		return err
	}

	reg, err := engine.LoadFiles(files)
	if err != nil {
		return err
	}
	log.Info("mocks loaded", "files", len(files), "definitions", reg.Len())

	holder := engine.NewHolder(reg)

	opts := []engine.ServerOption{engine.WithLogger(log)}
	var metrics *engine.Metrics
	if cfg.Metrics {
		metrics = engine.NewMetrics()
		metrics.SetDefinitions(reg.Len())
		opts = append(opts, engine.WithMetrics(metrics))
	}

	server := engine.NewServer(cfg.Addr(), holder, opts...)
	if err := server.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Watch {
		watcher, err := engine.NewWatcher(files, log)
		if err != nil {
			return err
		}
		go watcher.Run(ctx, func() error {
			next, err := engine.LoadFiles(files)
			if err != nil {
				return err
			}
			holder.Swap(next)
			if metrics != nil {
				metrics.SetDefinitions(next.Len())
			}
			return nil
		})
	}

	// Block until interrupted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Stop(shutdownCtx)
}

// resolveConfig merges the configuration file, flags, and positional mock
// file arguments. Flags win over the file; arguments extend the mock set.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if serveFlags.configPath != "" {
		loaded, err := config.LoadFile(serveFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = serveFlags.host
	}
	if flags.Changed("port") {
		cfg.Port = serveFlags.port
	}
	if flags.Changed("watch") {
		cfg.Watch = serveFlags.watch
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = serveFlags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = serveFlags.logFormat
	}
	if serveFlags.noMetrics {
		cfg.Metrics = false
	}
	cfg.Mocks = append(cfg.Mocks, args...)

	return cfg, cfg.Validate()
}
