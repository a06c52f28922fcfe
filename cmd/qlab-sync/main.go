package main

import (
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
