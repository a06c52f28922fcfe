package main

import (
	"fmt"
	"os"

	"github.com/zenibako/qlab-sync/reconcile"
	"github.com/zenibako/qlab-sync/templates"

	"gopkg.in/yaml.v3"
)

// Report is written by sync --report
type Report struct {
	Export string               `yaml:"export"`
	Plan   reconcile.Plan       `yaml:"plan"`
	Result templates.SyncResult `yaml:"result"`
}

func writeReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
