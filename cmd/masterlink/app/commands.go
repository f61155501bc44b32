package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/masterlink/cmd/masterlink/cmd/match"
	"github.com/agentstation/masterlink/cmd/masterlink/cmd/score"
	"github.com/agentstation/masterlink/cmd/masterlink/cmd/validate"
)

// CreateMatchCommand creates the match command with app dependencies.
func (a *App) CreateMatchCommand() *cobra.Command {
	return match.NewCommand(a)
}

// CreateScoreCommand creates the score command.
func (a *App) CreateScoreCommand() *cobra.Command {
	return score.NewCommand(a)
}

// CreateValidateCommand creates the validate command with app dependencies.
func (a *App) CreateValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("masterlink %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
