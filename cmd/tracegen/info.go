package main

import (
	"github.com/spf13/cobra"

	"github.com/logflow/tracegen/pkg/synth"
	"github.com/logflow/tracegen/pkg/tui"
)

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop, err := setup(cmd, cfg)
	if err != nil {
		return err
	}
	defer stop()

	log, size, err := loadLog(ctx, args[0], cfg, loc)
	if err != nil {
		return err
	}

	st := synth.Describe(log)
	tui.PrintInfo(cmd.OutOrStdout(), &tui.LogInfo{
		Path:        args[0],
		Size:        size,
		Traces:      st.Traces,
		Events:      st.Events,
		EmptyTraces: st.EmptyTraces,
		Activities:  st.Activities,
		First:       st.Min,
		Last:        st.Max,
		SourceDays:  st.SourceDays,
	})
	return nil
}
