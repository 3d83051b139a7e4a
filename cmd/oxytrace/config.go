package main

import (
	"os"

	"github.com/urfave/cli"
)

// PrintConfig writes the effective configuration to stdout.
func PrintConfig(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	return cfg.Encode(os.Stdout)
}
