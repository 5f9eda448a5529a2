package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/misim/misim/batch"
	"github.com/spf13/cobra"
)

var checkProfilesCmd = &cobra.Command{
	Use:   "check-profiles [file]",
	Short: "Validate a JSONL profile file without calling the oracle",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Run.ProfilePath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no profile file: pass one or set run.profile_path")
		}

		profiles, err := batch.LoadProfiles(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, p := range profiles {
			fmt.Fprintf(out, "%d\t%s\t%s\treceptivity=%.2f\tpersonas=%d\tbeliefs=%d\tplans=%d\n",
				i, p.Behavior, p.InitialStage, p.Receptivity, len(p.Personas), len(p.Beliefs), len(p.Plans))
		}
		fmt.Fprintf(out, "%d profiles ok\n", len(profiles))
		return nil
	},
}
