package commands

import (
	"errors"
	"fmt"
	"slices"

	"gitvault/pkg/core"
	"gitvault/pkg/storage/catalog"

	"github.com/spf13/cobra"
)

var errCatalogDisabled = errors.New("catalog disabled (set meta.driver to sqlite or postgres)")

var (
	objectsType     string
	objectsLimit    int
	objectsBackfill bool
	objectsStats    bool
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Query the object catalog",
	Long: `Lists objects recorded in the metadata catalog.
--backfill first records objects that were stored while the catalog was disabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if GV.Catalog == nil {
			return errCatalogDisabled
		}

		if objectsBackfill {
			cs, ok := GV.Store.(*catalog.Store)
			if !ok {
				return errCatalogDisabled
			}
			n, err := cs.Backfill(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "backfilled catalog from %d stored objects\n", n)
		}

		if objectsStats {
			counts, err := GV.Catalog.CountObjects(ctx)
			if err != nil {
				return err
			}
			kinds := make([]string, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			for _, k := range kinds {
				fmt.Fprintf(out, "%s\t%d\n", k, counts[k])
			}
			return nil
		}

		kind := core.ObjectType(objectsType)
		if kind != "" && !kind.IsKnown() {
			return fmt.Errorf("%w: %q", core.ErrInvalidKind, objectsType)
		}

		records, err := GV.Catalog.ListObjects(ctx, kind, objectsLimit)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s %s %d\n", r.Hash, r.Type, r.Size)
		}
		return nil
	},
}

func init() {
	objectsCmd.Flags().StringVar(&objectsType, "type", "", "only list objects of this kind (blob, tree)")
	objectsCmd.Flags().IntVar(&objectsLimit, "limit", 0, "maximum number of rows (0 = no limit)")
	objectsCmd.Flags().BoolVar(&objectsBackfill, "backfill", false, "record stored objects missing from the catalog first")
	objectsCmd.Flags().BoolVar(&objectsStats, "stats", false, "print object counts per kind instead of rows")
	rootCmd.AddCommand(objectsCmd)
}
