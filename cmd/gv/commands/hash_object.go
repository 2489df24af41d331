package commands

import (
	"fmt"
	"os"

	"gitvault/pkg/core"
	"gitvault/pkg/ingester"

	"github.com/spf13/cobra"
)

var (
	hashWrite bool
	hashStdin bool
)

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object [-w] (--stdin | <file>)",
	Short: "Compute the blob digest of a file and optionally store it",
	Long: `Prints the blob digest of a file's content.
With -w the blob is also written to the object store, which requires a repository.`,
	Annotations: map[string]string{repoOptional: "true"},
	Args: func(cmd *cobra.Command, args []string) error {
		if hashStdin {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			blob *core.Blob
			err  error
		)

		switch {
		case hashWrite && hashStdin:
			if err := requireRepo(); err != nil {
				return err
			}
			blob, err = GV.Ingester.IngestFile(cmd.Context(), cmd.InOrStdin())
		case hashWrite:
			if err := requireRepo(); err != nil {
				return err
			}
			blob, err = GV.Ingester.IngestPath(cmd.Context(), args[0])
		case hashStdin:
			blob, err = ingester.HashOnly(cmd.InOrStdin())
		default:
			f, openErr := os.Open(args[0])
			if openErr != nil {
				return fmt.Errorf("%w: %w", core.ErrIO, openErr)
			}
			defer f.Close()
			blob, err = ingester.HashOnly(f)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), blob.ID())
		return nil
	},
}

func init() {
	hashObjectCmd.Flags().BoolVarP(&hashWrite, "write", "w", false, "write the blob into the object store")
	hashObjectCmd.Flags().BoolVar(&hashStdin, "stdin", false, "read content from standard input")
	rootCmd.AddCommand(hashObjectCmd)
}
