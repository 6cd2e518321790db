package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/pkg/demo"
)

// ShowDemo prints the embedded demo data set to stdout.
func ShowDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	data, err := demo.Load()
	if err != nil {
		return err
	}
	return WriteDemo(os.Stdout, data)
}

// WriteDemo renders the restaurant, tables and menu as aligned columns.
func WriteDemo(out io.Writer, data *demo.Data) error {
	r := data.Restaurant
	fmt.Fprintf(out, "%s  (UPI %s, %.4f,%.4f, radius %.0fm)\n\n", r.Name, r.UPIID, r.Latitude, r.Longitude, r.RadiusM)
	fmt.Fprintf(out, "Tables: %d\n", len(data.Tables))
	for _, t := range data.Tables {
		fmt.Fprintf(out, "  %s\n", t)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CATEGORY\tNAME\tPRICE\t")
	for _, m := range data.Menu {
		price, err := m.Amount()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", m.Category, m.Name, price.StringFixed(2))
	}
	return tw.Flush()
}
