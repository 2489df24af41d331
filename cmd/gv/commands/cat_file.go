package commands

import (
	"errors"
	"fmt"

	"gitvault/pkg/core"

	"github.com/spf13/cobra"
)

var (
	catPretty bool
	catType   bool
	catSize   bool
)

var catFileCmd = &cobra.Command{
	Use:   "cat-file (-p | -t | -s) <hash>",
	Short: "Show the content, kind or size of an object",
	Long: `Inspects a stored object. The hash may be abbreviated (at least 4 characters).

  -p  pretty-print: blob text verbatim, trees one entry per line
  -t  print the object kind
  -s  print the payload size in bytes`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		n := 0
		for _, set := range []bool{catPretty, catType, catSize} {
			if set {
				n++
			}
		}
		if n != 1 {
			return errors.New("exactly one of -p, -t or -s is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		hash, err := GV.ResolveHash(ctx, args[0])
		if err != nil {
			return err
		}

		kind, size, err := GV.Reader.Stat(ctx, hash)
		if err != nil {
			return err
		}

		switch {
		case catType:
			fmt.Fprintln(out, kind)
		case catSize:
			fmt.Fprintln(out, size)
		case kind == core.TypeBlob:
			text, err := GV.ReadBlobAsText(ctx, hash)
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
		default:
			return GV.Reader.PrintObject(ctx, hash, out)
		}
		return nil
	},
}

func init() {
	catFileCmd.Flags().BoolVarP(&catPretty, "pretty", "p", false, "pretty-print the object content")
	catFileCmd.Flags().BoolVarP(&catType, "type", "t", false, "show the object kind")
	catFileCmd.Flags().BoolVarP(&catSize, "size", "s", false, "show the payload size")
	rootCmd.AddCommand(catFileCmd)
}
