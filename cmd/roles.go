package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles in the loaded corpus with their tier counts",
	Run: func(_ *cobra.Command, _ []string) {
		e := newEnv(context.Background())
		if err := printJSON(e.dataset.Roles()); err != nil {
			e.logger.Fatal("writing output", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}
