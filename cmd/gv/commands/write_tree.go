package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var writeTreeCmd = &cobra.Command{
	Use:   "write-tree [dir]",
	Short: "Snapshot a directory into tree objects",
	Long: `Stores every regular file under dir (default: the current directory) as a blob
and every directory as a tree, then prints the root tree digest.
The repository directory is skipped at any depth; symlinks are not followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		h, err := GV.SnapshotDirectory(cmd.Context(), dir)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeTreeCmd)
}
