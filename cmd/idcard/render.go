package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/idcard-tools/internal/card"
	"github.com/ironsheep/idcard-tools/internal/imaging"
	"github.com/ironsheep/idcard-tools/internal/metrics"
	"github.com/ironsheep/idcard-tools/internal/roster"
)

func newRenderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render one card per roster row",
		Long: `render detects and classifies the template's placeholder boxes once, then
renders a card for every roster row. Rows with missing details or photos are
skipped and reported; the rest of the batch continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.render(cmd)
		},
	}
}

func (o *options) render(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Roster.Path == "" {
		return errors.New("no roster configured, use --roster")
	}
	logger, err := o.newLogger()
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	engineOpts := []card.Option{card.WithLogger(logger)}
	if cfg.MetricsFile != "" {
		m = metrics.New()
		engineOpts = append(engineOpts, card.WithObserver(m))
	}

	engine, err := card.Build(cfg, nil, engineOpts...)
	if err != nil {
		return err
	}

	photoDir := cfg.Roster.PhotoDir
	if photoDir == "" {
		photoDir = filepath.Dir(cfg.Roster.Path)
	}
	records, err := roster.Load(cfg.Roster.Path, roster.NewPhotoLocator(photoDir, cfg.Roster.PhotoExtensions...))
	if err != nil {
		return err
	}
	logger.Info("roster loaded", "roster", cfg.Roster.Path, "records", len(records), "workers", cfg.Workers)

	tpl, err := card.LoadTemplate(imaging.NewImageCache(cfg.PDFDPI), cfg.Template)
	if err != nil {
		return err
	}
	layout, err := engine.Prepare(ctx, tpl)
	if err != nil {
		return err
	}
	m.ObserveLayout(layout)

	report, runErr := engine.RunLayout(ctx, layout, records)
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}

	if m != nil {
		m.MarkRun(time.Now())
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d cards failed", report.Failed, len(records))
	}
	return nil
}

// printReport lists the written cards and every skipped or failed record.
func printReport(w io.Writer, report *card.Report) {
	for _, c := range report.Cards() {
		fmt.Fprintln(w, c.Path)
	}
	for _, err := range report.Errors() {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	fmt.Fprintf(w, "%d rendered, %d skipped, %d failed in %s\n",
		report.Rendered, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))
}
