package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/internal/daemon"
	"github.com/Fullex26/failsafe-relay/internal/setup"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

var (
	cfgPath string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "failsafe-relay",
		Short: "🌡️ failsafe-relay: forwards OctoPrint TemperatureFailsafe alerts to your phone",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultConfigPath, "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		runCmd(),
		testCmd(),
		sendCmd(),
		setupCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the relay daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			setupLogging()

			d, err := daemon.New(cfg)
			if err != nil {
				return fmt.Errorf("initializing daemon: %w", err)
			}

			return d.Run()
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification to all configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			setupLogging()

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}

			fmt.Println("🌡️  Sending test notification...")
			if err := d.TestNotifiers(); err != nil {
				return err
			}
			fmt.Println("✅ Test notification sent!")
			return nil
		},
	}
}

func sendCmd() *cobra.Command {
	var origin, kind, msg string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Relay one synthetic plugin message, as if pushed by OctoPrint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			// show drop decisions for this one message
			cfg.Diagnostics.LogDrops = true
			verbose = true
			setupLogging()

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}

			return d.Deliver(models.InboundEvent{
				Origin:  origin,
				Payload: models.MessagePayload{Kind: kind, Text: msg},
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", models.PluginIdentifier, "plugin identifier the message claims to come from")
	cmd.Flags().StringVar(&kind, "type", models.KindPopup, "message type")
	cmd.Flags().StringVar(&msg, "msg", "TemperatureFailSafe test alert", "message text")
	return cmd
}

func setupCmd() *cobra.Command {
	var envPath string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup.Run(cfgPath, envPath)
		},
	}
	cmd.Flags().StringVar(&envPath, "env-file", setup.DefaultEnvPath, "path to env file for credentials")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("failsafe-relay v%s\nhttps://github.com/Fullex26/failsafe-relay\n", daemon.Version)
		},
	}
}
