// File: cmd/hioload-ftpd/commands/start.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-ftpd/adapters"
	"github.com/momentics/hioload-ftpd/control"
	"github.com/momentics/hioload-ftpd/internal/admin"
	"github.com/momentics/hioload-ftpd/internal/config"
	"github.com/momentics/hioload-ftpd/internal/ftp"
	"github.com/momentics/hioload-ftpd/internal/logger"
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/server"
	"github.com/momentics/hioload-ftpd/transport/tcp"
)

var (
	startAddress    string
	startPort       int
	startMaxClients int
	startNoWatch    bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the FTP control server",
	Long: `Start the server in the foreground. It listens on an IPv4 address,
greets every accepted client and serves up to max_clients sessions from a
single readiness loop. SIGINT or SIGTERM closes every session and exits.

Examples:
  # Start with the default configuration
  hioload-ftpd start

  # Override the listening socket and capacity
  hioload-ftpd start --address 0.0.0.0 --port 21 --max-clients 50

  # Use environment variables to override config
  HIOLOAD_FTPD_LOGGING_LEVEL=DEBUG hioload-ftpd start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startAddress, "address", "", "IPv4 address to bind (overrides config)")
	startCmd.Flags().IntVar(&startPort, "port", 0, "TCP port to bind (overrides config)")
	startCmd.Flags().IntVar(&startMaxClients, "max-clients", 0, "Maximum concurrent sessions (overrides config)")
	startCmd.Flags().BoolVar(&startNoWatch, "no-watch", false, "Do not reload greeting and users when the config file changes")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyStartFlags(cmd, cfg); err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// A client that disconnects mid-write must cost only its session.
	signal.Ignore(syscall.SIGPIPE)

	ln, err := tcp.Listen(cfg.Server.Address, cfg.Server.Port)
	if err != nil {
		return err
	}
	defer func() { _ = ln.Close() }()
	ln.SetSendTimeout(cfg.Server.SendTimeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewServerMetrics(reg)

	interp, err := newInterpreter(cfg, m)
	if err != nil {
		return err
	}

	ctrl := adapters.NewControlAdapter()
	ctrl.SetState("server.address", ln.Addr().String())
	ctrl.SetState("server.version", Version)

	opts := []server.ServerOption{
		server.WithMaxClients(cfg.Server.MaxClients),
		server.WithGreeting(cfg.Server.Greeting),
		server.WithMetrics(m),
		server.WithObserver(ctrl.Observer()),
	}
	if cfg.Server.PinLoop {
		opts = append(opts, server.WithLoopCPU(cfg.Server.LoopCPU))
	}
	srv, err := server.NewServer(adapters.NewAcceptorAdapter(ln), adapters.NewExecutorAdapter(interp), opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := resolveConfigPath()
	ctrl.OnReload(func() { reloadConfig(configPath, cfg, srv, interp) })
	if !startNoWatch {
		if _, statErr := os.Stat(configPath); statErr == nil {
			go func() {
				if err := control.WatchFile(ctx, configPath, ctrl.ReloadHooks()); err != nil {
					logger.Warn("Config watcher stopped", logger.Err(err))
				}
			}()
		}
	}

	adminDone := make(chan error, 1)
	if cfg.Admin.Enabled {
		adm := admin.NewServer(cfg.Admin.Address, cfg.Admin.Port, cfg.Admin.ShutdownTimeout, ctrl, reg)
		go func() { adminDone <- adm.Start(ctx) }()
	} else {
		close(adminDone)
	}

	logger.Info("Server is running. Press Ctrl+C to stop.",
		logger.KeyCapacity, cfg.Server.MaxClients)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serveUntilSignal(ctx, cancel, srv.Serve, sigChan)

	if err := <-adminDone; err != nil {
		logger.Warn("Admin server error", logger.Err(err))
	}
	return nil
}

// serveUntilSignal runs serve until it returns or a signal arrives.
// Once the loop has started, its failure is logged and the process still
// exits 0; only setup failures produce a non-zero exit.
func serveUntilSignal(ctx context.Context, cancel context.CancelFunc, serve func(context.Context) error, sigChan <-chan os.Signal) {
	serverDone := make(chan error, 1)
	go func() { serverDone <- serve(ctx) }()

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
		serveErr = <-serverDone
	case serveErr = <-serverDone:
		cancel()
	}

	if serveErr != nil {
		logger.Error("Server stopped with error", logger.Err(serveErr))
		return
	}
	logger.Info("Server stopped")
}

// applyStartFlags lets explicitly set flags override the loaded config.
func applyStartFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Server.Address = startAddress
	}
	if flags.Changed("port") {
		cfg.Server.Port = startPort
	}
	if flags.Changed("max-clients") {
		cfg.Server.MaxClients = startMaxClients
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func newInterpreter(cfg *config.Config, m *metrics.ServerMetrics) (*ftp.Interpreter, error) {
	opts := []ftp.Option{ftp.WithMetrics(m)}
	if cfg.Server.PassiveAddress != "" {
		ip, err := netip.ParseAddr(cfg.Server.PassiveAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid passive address: %w", err)
		}
		opts = append(opts, ftp.WithPassiveIP(ip))
	}
	users := ftp.NewUserStore(cfg.UserHashes(), cfg.Server.AllowAnonymous)
	return ftp.NewInterpreter(users, opts...), nil
}

// reloadConfig applies the settings that can change without rebinding:
// greeting, accounts and log level. Others are reported and ignored.
func reloadConfig(path string, current *config.Config, srv *server.Server, interp *ftp.Interpreter) {
	next, err := config.Load(path)
	if err != nil {
		logger.Warn("Config reload rejected", logger.Err(err))
		return
	}

	srv.SetGreeting(next.Server.Greeting)
	interp.SetUsers(ftp.NewUserStore(next.UserHashes(), next.Server.AllowAnonymous))
	logger.SetLevel(next.Logging.Level)

	if next.Server.Address != current.Server.Address ||
		next.Server.Port != current.Server.Port ||
		next.Server.MaxClients != current.Server.MaxClients {
		logger.Warn("Listener and capacity changes need a restart",
			logger.KeyAddress, next.Server.Address,
			logger.KeyPort, next.Server.Port,
			logger.KeyCapacity, next.Server.MaxClients)
	}
	logger.Info("Configuration reloaded", "users", len(next.Users))
}
