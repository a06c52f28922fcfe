package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zenibako/qlab-sync/eos"
	"github.com/zenibako/qlab-sync/inventory"
	"github.com/zenibako/qlab-sync/reconcile"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// SyncOptions holds the flags of the sync command.
type SyncOptions struct {
	DryRun bool
	Yes    bool
	Report string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync [export.csv]",
		Short: "Create the QLab cues missing for an Eos export",
		Long: `Parse the Eos export, read the cues already in QLab, show the plan and
create what is missing.

Without an export path a file picker is shown. A non-empty plan is
confirmed interactively unless --yes or --dry-run is given.

Examples:
  # Interactive
  qlab-sync sync

  # Unattended, with a report
  qlab-sync sync show.csv --yes --report sync.yaml

  # See what would be sent without changing the workspace
  qlab-sync sync show.csv --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log write requests instead of sending them")
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "apply without confirmation")
	cmd.Flags().StringVar(&opts.Report, "report", "", "write a YAML report of the run to this file")

	return cmd
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [export.csv]",
		Short: "Show the cues sync would create, without creating them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := preparePlan(ctx, rootOpts, args, false)
			if err != nil {
				return err
			}
			defer p.session.close()

			fmt.Fprint(cmd.OutOrStdout(), p.plan.Render())
			return nil
		},
	}
}

// prepared is a parsed export diffed against a connected workspace
type prepared struct {
	export  string
	session *session
	engine  *reconcile.Engine
	state   *inventory.State
	plan    reconcile.Plan
}

// preparePlan parses the export before connecting, so a bad export never
// reaches QLab.
func preparePlan(ctx context.Context, rootOpts *RootOptions, args []string, dryRun bool) (*prepared, error) {
	export := ""
	if len(args) > 0 {
		export = args[0]
	} else {
		picked, err := pickExport()
		if err != nil {
			return nil, err
		}
		export = picked
	}

	show, err := eos.ParseFile(export)
	if err != nil {
		return nil, err
	}

	cfg := rootOpts.Config
	s, err := connect(ctx, cfg, dryRun)
	if err != nil {
		return nil, err
	}

	state, _, err := s.state(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	engine := reconcile.NewEngine(cfg.Sync)
	return &prepared{
		export:  export,
		session: s,
		engine:  engine,
		state:   state,
		plan:    engine.Plan(show, state),
	}, nil
}

func runSync(cmd *cobra.Command, rootOpts *RootOptions, opts *SyncOptions, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := preparePlan(ctx, rootOpts, args, opts.DryRun)
	if err != nil {
		return err
	}
	defer p.session.close()

	fmt.Fprint(cmd.OutOrStdout(), p.plan.Render())

	if !p.plan.Empty() && !opts.Yes && !opts.DryRun {
		confirmed, err := confirmPlan(p.plan)
		if err != nil {
			return err
		}
		if !confirmed {
			log.Info("Sync cancelled, nothing was created")
			return nil
		}
	}

	result, err := p.engine.Apply(ctx, p.session.client, p.plan, p.state)
	result.DryRun = opts.DryRun
	result.Export = p.export

	if opts.Report != "" {
		if reportErr := writeReport(opts.Report, Report{Export: p.export, Plan: p.plan, Result: result}); reportErr != nil {
			log.Error("Failed to write report", "path", opts.Report, "error", reportErr)
		} else {
			log.Info("Report written", "path", opts.Report)
		}
	}

	if err != nil {
		return fmt.Errorf("sync stopped after %d cues: %w", len(result.CuesCreated), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %d cues\n", len(result.CuesCreated))
	return nil
}
