package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voiced/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "voiced",
		Short:         "Voice-clone text-to-speech server with on-demand model loading",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", []string{".env"}, "Dotenv files loaded before VOICED_* variables (missing files are ignored)")

	root.AddCommand(newServeCmd(g), newVoicesCmd(g), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the voiced version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "voiced", Version)
			return err
		},
	}
}

// loadConfig resolves file, dotenv and environment, then applies flags the
// user set explicitly on cmd. Flags win over everything else.
func loadConfig(cmd *cobra.Command, g *globalFlags) (config.Config, error) {
	cfg, err := config.Resolve(g.configPath, g.envFiles...)
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// addConfigFlags registers the flags applyFlags understands.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("addr", config.DefaultAddr, "HTTP listen address")
	f.String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error|off")
	f.Bool("log-pretty", false, "Human readable console logs instead of JSON")
	f.Duration("idle-timeout", config.DefaultIdleTimeout, "Unload the model after this long without use")
	f.Duration("load-timeout", config.DefaultLoadTimeout, "Bound on model construction plus voice prompt derivation")
	f.String("model", config.DefaultModelID, "Model id the worker constructs")
	f.String("device", config.DefaultDevice, "Device the worker loads the model on")
	f.String("worker-url", config.DefaultWorkerURL, "Base URL of an already running worker")
	f.String("worker-cmd", "", "Spawn and supervise this worker command instead of using --worker-url")
	f.String("default-voice", "", "Voice used when a request names none")
	f.String("voices-dir", "", "Directory scanned for <name>.wav + <name>.txt voices")
	f.String("static-dir", "", "Directory served under /static/")
	f.Bool("no-warmup", false, "Do not load the model right after startup")
	f.Float64("rate-limit", 0, "Generation requests per second (0 disables)")
	f.Bool("cors", false, "Enable CORS for all origins")
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	str := map[string]*string{
		"addr":          &cfg.Addr,
		"log-level":     &cfg.LogLevel,
		"model":         &cfg.Model.ID,
		"device":        &cfg.Model.Device,
		"worker-url":    &cfg.Worker.URL,
		"worker-cmd":    &cfg.Worker.Command,
		"default-voice": &cfg.DefaultVoice,
		"voices-dir":    &cfg.VoicesDir,
		"static-dir":    &cfg.StaticDir,
	}
	for name, dst := range str {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	bools := map[string]*bool{
		"log-pretty": &cfg.LogPretty,
		"no-warmup":  &cfg.NoWarmup,
		"cors":       &cfg.CORS.Enabled,
	}
	for name, dst := range bools {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	durs := map[string]*config.Duration{
		"idle-timeout": &cfg.IdleTimeout,
		"load-timeout": &cfg.LoadTimeout,
	}
	for name, dst := range durs {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = config.Duration(v)
	}
	if f.Lookup("rate-limit") != nil && f.Changed("rate-limit") {
		v, err := f.GetFloat64("rate-limit")
		if err != nil {
			return err
		}
		cfg.RateLimit.RPS = v
	}
	return nil
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second
