package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logflow/tracegen/pkg/config"
)

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), cfg.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.Default().Save(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
	return nil
}
