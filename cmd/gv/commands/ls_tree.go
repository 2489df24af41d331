package commands

import (
	"gitvault/pkg/reader"

	"github.com/spf13/cobra"
)

var lsNameOnly bool

var lsTreeCmd = &cobra.Command{
	Use:   "ls-tree [--name-only] <tree-hash>",
	Short: "List the entries of a tree object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hash, err := GV.ResolveHash(ctx, args[0])
		if err != nil {
			return err
		}

		if lsNameOnly {
			names, err := GV.ListTreeEntryNames(ctx, hash)
			if err != nil {
				return err
			}
			return reader.PrintNames(names, cmd.OutOrStdout())
		}

		entries, err := GV.Reader.ReadTree(ctx, hash)
		if err != nil {
			return err
		}
		return reader.PrintTree(entries, cmd.OutOrStdout())
	},
}

func init() {
	lsTreeCmd.Flags().BoolVar(&lsNameOnly, "name-only", false, "list only file and directory names")
	rootCmd.AddCommand(lsTreeCmd)
}
