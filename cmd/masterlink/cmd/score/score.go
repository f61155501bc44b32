// Package score implements the score command.
package score

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/masterlink/internal/appcontext"
	"github.com/agentstation/masterlink/internal/cmd/output"
	"github.com/agentstation/masterlink/pkg/similarity"
)

// Result is the score command output.
type Result struct {
	A     string `json:"a" yaml:"a"`
	B     string `json:"b" yaml:"b"`
	Score int    `json:"score" yaml:"score"`
}

// NewCommand creates the score command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var caseSensitive bool

	cmd := &cobra.Command{
		Use:     "score A B",
		GroupID: "core",
		Short:   "Print the partial-ratio similarity of two strings",
		Long: `Score prints how closely the shorter string matches the best
equal-length window of the longer one, from 0 to 100. Comparison ignores
case unless --case-sensitive is set.`,
		Example: `  masterlink score "jon smith" "mr john smith jr"
  masterlink score Jane JANE --case-sensitive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := Result{
				A:     args[0],
				B:     args[1],
				Score: similarity.Score(args[0], args[1], similarity.CaseSensitive(caseSensitive)),
			}

			format := output.DetectFormat(app.OutputFormat())
			if output.IsTable(format) {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Score)
				return err
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "compare without lowercasing")

	return cmd
}
