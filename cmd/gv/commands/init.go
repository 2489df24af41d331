package commands

import (
	"fmt"
	"path/filepath"

	"gitvault/pkg/config"
	"gitvault/pkg/refs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty repository",
	Long:  `Creates the repository directory with objects/, refs/heads/ and a HEAD pointing at the main branch.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath := viper.GetString(config.KeyRepoPath)
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			return err
		}

		created, err := refs.NewManager(abs).Init()
		if err != nil {
			return err
		}

		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty gitvault repository in %s\n", abs)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Reinitialized existing gitvault repository in %s\n", abs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
