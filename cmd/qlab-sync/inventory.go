package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInventoryCommand creates the inventory command.
func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	format := "text"

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Show the groups and network cues already in QLab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("invalid format %q: must be text or yaml", format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := connect(ctx, rootOpts.Config, false)
			if err != nil {
				return err
			}
			defer s.close()

			state, records, err := s.state(ctx, rootOpts.Config)
			if err != nil {
				return err
			}

			if format == "yaml" {
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(records)
			}
			fmt.Fprint(cmd.OutOrStdout(), state.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|yaml)")
	return cmd
}
