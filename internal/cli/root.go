// Package cli implements the paceplan command line tool.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/pace-projection-api/pkg/config"
)

// App carries the collaborators commands need. ConfigLoader is only consulted by
// commands that talk to shared infrastructure.
type App struct {
	ConfigLoader func() (*config.Config, error)
}

// NewRootCmd assembles the paceplan command tree.
func NewRootCmd(app *App) *cobra.Command {
	if app.ConfigLoader == nil {
		app.ConfigLoader = config.Load
	}
	root := &cobra.Command{
		Use:           "paceplan",
		Short:         "Offline pace projection tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenerateCmd(),
		newTokenCmd(app),
		newMigrateCmd(app),
	)

	return root
}
