package main

import (
	"fmt"
	"time"

	"github.com/zenibako/qlab-sync/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands and the loaded configuration.
type RootOptions struct {
	ConfigDir string
	Host      string
	Port      int
	ReplyPort int
	Passcode  string
	Timeout   time.Duration
	Source    string
	LogLevel  string

	Config *config.Config
}

// overrides maps flags onto configuration keys. Unset flags are zero and
// leave the configured value alone.
func (o *RootOptions) overrides() map[string]any {
	return map[string]any{
		"qlab.host":        o.Host,
		"qlab.port":        o.Port,
		"qlab.reply_port":  o.ReplyPort,
		"qlab.passcode":    o.Passcode,
		"qlab.timeout":     o.Timeout,
		"inventory.source": o.Source,
		"log.level":        o.LogLevel,
	}
}

// NewRootCommand creates the root command for the qlab-sync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qlab-sync",
		Short: "Mirror an ETC Eos cue list into QLab",
		Long: `qlab-sync reads the cue list exported by an ETC Eos console and creates
the QLab cues that are missing: one collapsed group per scene with an audio
cue on top, and one network cue per console cue firing it over the network
patch. Cues already in QLab are left alone, so it is safe to run again after
the console cue list changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.ConfigDir, opts.overrides())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.Config = cfg
			return setupLogging(cfg.Log, cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigDir, "config-dir", ".", "directory holding qlab-sync.yaml and .env")
	flags.StringVar(&opts.Host, "host", "", "QLab host (default 127.0.0.1)")
	flags.IntVar(&opts.Port, "port", 0, "QLab OSC port (default 53000)")
	flags.IntVar(&opts.ReplyPort, "reply-port", 0, "local port QLab replies to (default 53001)")
	flags.StringVar(&opts.Passcode, "passcode", "", "QLab workspace passcode")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "how long to wait for each QLab reply (default 10s)")
	flags.StringVar(&opts.Source, "inventory-source", "", "how to read existing cues: osc or jxa (default osc)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (default info)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))

	return cmd
}
