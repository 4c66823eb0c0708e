package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/idcard-tools/internal/card"
	"github.com/ironsheep/idcard-tools/internal/imaging"
)

func newDetectCmd(opts *options) *cobra.Command {
	var classify bool
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List the template's placeholder boxes",
		Long: `detect prints the template's placeholder boxes in raster order. With
--classify (the default) each box is also read and matched against the
vocabulary, which needs Tesseract.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.detect(cmd, classify)
		},
	}
	cmd.Flags().BoolVar(&classify, "classify", true, "read each box's label and report its field kind")
	return cmd
}

func (o *options) detect(cmd *cobra.Command, classify bool) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := o.newLogger()
	if err != nil {
		return err
	}
	engine, err := card.Build(cfg, nil, card.WithLogger(logger), card.WithClassificationCache(classify))
	if err != nil {
		return err
	}
	tpl, err := card.LoadTemplate(imaging.NewImageCache(cfg.PDFDPI), cfg.Template)
	if err != nil {
		return err
	}
	layout, err := engine.Prepare(cmd.Context(), tpl)
	if err != nil {
		return err
	}
	return printLayout(cmd.OutOrStdout(), layout)
}

func printLayout(w io.Writer, layout *card.Layout) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !layout.Classified() {
		fmt.Fprintln(tw, "#\tX\tY\tWIDTH\tHEIGHT")
		for i, r := range layout.Regions {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", i, r.X, r.Y, r.Width, r.Height)
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "#\tX\tY\tWIDTH\tHEIGHT\tKIND\tSCORE\tTEXT")
	for i, f := range layout.Fields {
		r := f.Region
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\t%d\t%q\n", i, r.X, r.Y, r.Width, r.Height, f.Kind, f.Score, r.Text)
	}
	return tw.Flush()
}
