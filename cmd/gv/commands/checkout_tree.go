package commands

import (
	"fmt"

	"gitvault/pkg/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkoutTreeCmd = &cobra.Command{
	Use:   "checkout-tree <tree-hash> <dir>",
	Short: "Restore a stored tree into a directory",
	Long:  `Writes every file of the tree under dir, creating directories as needed. Existing files are overwritten.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hash, err := GV.ResolveHash(ctx, args[0])
		if err != nil {
			return err
		}

		var files int
		var bytes int64
		err = GV.Reader.RestoreTree(ctx, hash, args[1], func(path string, h types.Hash, size int64) {
			files++
			bytes += size
			GV.Log.Debug("restored", zap.String("path", path), zap.String("blob", h.Short()))
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d files (%d bytes) from %s into %s\n", files, bytes, hash.Short(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkoutTreeCmd)
}
