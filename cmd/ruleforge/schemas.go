package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ruleforge/internal/catalog"
)

func newSchemasCmd() *cobra.Command {
	var catalogFile string
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the rule schemas in a catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(catalogFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTION\tSOURCE\tPROCESSING\tSRC\tDST\tBUTTON")
			for _, rs := range cat.All() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
					rs.SchemaID, rs.Action, rs.SourceType, rs.ProcessingType,
					len(rs.SourceFields), rs.NumberOfItems, rs.Button)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "rule schema catalog JSON (required)")
	cmd.MarkFlagRequired("catalog")
	return cmd
}
