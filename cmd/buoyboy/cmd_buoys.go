package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waveconnect/backend-go/internal/models"
)

func (c *cli) newBuoysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buoys",
		Short: "List buoys with known metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tNAME\tLATITUDE\tLONGITUDE")
			for _, b := range models.KnownBuoys() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.Number, b.Name(), degrees(b.Latitude), degrees(b.Longitude))
			}
			return w.Flush()
		},
	}
}

func degrees(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *f)
}
