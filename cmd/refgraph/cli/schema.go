package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanpama/refgraph/internal/catalog"
	"github.com/hanpama/refgraph/internal/schema"
)

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the catalog schema as SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := catalog.New(nil).Schema()
			if err != nil {
				return fmt.Errorf("catalog schema: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.Render(r))
			return err
		},
	}
}
