package main

import (
	"fmt"
	"io"

	"github.com/zenibako/qlab-sync/eos"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	format := "text"

	cmd := &cobra.Command{
		Use:   "parse <export.csv>",
		Short: "Show the scenes and network slots of an Eos export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			show, err := eos.ParseFile(args[0])
			if err != nil {
				return err
			}
			return printShow(cmd.OutOrStdout(), show, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|yaml)")
	return cmd
}

func printShow(w io.Writer, show *eos.Show, format string) error {
	switch format {
	case "yaml":
		return yaml.NewEncoder(w).Encode(show)
	case "text":
	default:
		return fmt.Errorf("invalid format %q: must be text or yaml", format)
	}

	fmt.Fprintf(w, "Scenes (%d):\n", len(show.Scenes))
	for _, scene := range show.Scenes {
		fmt.Fprintf(w, "  %s\n", scene)
		for _, slot := range show.SlotsForScene(scene) {
			fmt.Fprintf(w, "    %d. cue %s\n", slot.Index+1, slot.CueNumber)
		}
	}
	return nil
}
