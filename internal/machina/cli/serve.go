package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/machina-vm/machina/internal/machina/network"
	"github.com/machina-vm/machina/pkg/config"
	"github.com/machina-vm/machina/pkg/logger"
	"github.com/machina-vm/machina/pkg/platform"
)

var (
	bridgeOverride string
	subnetOverride string
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guest network service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	bindServeFlags(cmd.Flags())
	return cmd
}

func bindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&bridgeOverride, "bridge", "",
		"Bridge interface to serve (overrides configuration)")
	fs.StringVar(&subnetOverride, "subnet", "",
		"IPv4 subnet in CIDR form (overrides configuration)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.LoadConfig()
	if err != nil {
		return err
	}

	initializeLogging(cfg)
	log := logger.WithField("component", "machinad")
	log.Debug("configuration loaded", "path", path)

	if bridgeOverride != "" {
		cfg.Network.BridgeName = bridgeOverride
	}
	if subnetOverride != "" {
		cfg.Network.Subnet = subnetOverride
	}

	p := platform.NewPlatform()

	// The one fatal path: without DHCP/DNS the guests get no network.
	server, err := network.NewServer(p, cfg.DataDir, cfg.Network.BridgeName, cfg.Network.Subnet, network.Options{
		DnsmasqPath:     cfg.Network.DnsmasqPath,
		DHCPReleasePath: cfg.Network.DHCPReleasePath,
		LeaseTime:       cfg.Network.LeaseTime,
		StartTimeout:    cfg.Network.StartTimeout,
		StopTimeout:     cfg.Network.StopTimeout,
		KillTimeout:     cfg.Network.KillTimeout,
		ReleaseTimeout:  cfg.Network.ReleaseTimeout,
	})
	if err != nil {
		return err
	}
	defer server.Stop()

	log.Info("guest network service started",
		"bridge", cfg.Network.BridgeName,
		"subnet", cfg.Network.Subnet,
		"dataDir", cfg.DataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	interval := cfg.Network.HealthInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := server.CheckRunning(); err != nil {
				log.Error("failed to restart dnsmasq", "error", err)
			}
		case sig := <-sigCh:
			log.Info("shutting down", "signal", sig.String())
			return nil
		}
	}
}

func initializeLogging(cfg *config.Config) {
	if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("invalid log level, using INFO", "level", cfg.Logging.Level)
		logger.SetLevel(logger.INFO)
	}
}
