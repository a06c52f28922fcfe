package main

import (
	"fmt"

	"github.com/zenibako/qlab-sync/reconcile"

	"github.com/charmbracelet/huh"
)

// pickExport asks for the Eos export when none was given on the command line
func pickExport() (string, error) {
	var path string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewFilePicker().
				Title("Select the Eos CSV export").
				Description("File > Export > CSV on the console, including targets").
				CurrentDirectory(".").
				AllowedTypes([]string{".csv"}).
				Value(&path),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("no export selected: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("no export selected")
	}
	return path, nil
}

// confirmPlan asks before anything is created in QLab
func confirmPlan(plan reconcile.Plan) (bool, error) {
	confirmed := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Create %d cues in QLab?", len(plan.Operations))).
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirmed),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
