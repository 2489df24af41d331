package commands

import (
	"fmt"

	"gitvault/pkg/config"
	"gitvault/pkg/fsck"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck [tree-hash]",
	Short: "Verify object integrity",
	Long: `Re-reads objects, checks their framing and recomputes their digests.
With a hash, everything reachable from it is checked and missing children are reported.
Without one, every object in the store is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		checker := fsck.NewChecker(GV.Store, viper.GetInt(config.KeyFsckConcurrency), GV.Log)

		var (
			report *fsck.Report
			err    error
		)
		if len(args) == 1 {
			hash, resolveErr := GV.ResolveHash(ctx, args[0])
			if resolveErr != nil {
				return resolveErr
			}
			report, err = checker.CheckReachable(ctx, hash)
		} else {
			report, err = checker.CheckAll(ctx)
		}
		if err != nil {
			return err
		}

		for _, p := range report.Problems {
			fmt.Fprintln(out, p.String())
		}
		fmt.Fprintf(out, "checked %d objects (%d blobs, %d trees), %d problems\n",
			report.Checked, report.Blobs, report.Trees, len(report.Problems))

		if !report.OK() {
			return fmt.Errorf("%w: %d problems", errFsckFailed, len(report.Problems))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)
}
