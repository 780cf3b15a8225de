package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gemdale/reportkit/internal/report"
	"github.com/gemdale/reportkit/internal/site"
	"github.com/spf13/cobra"
)

type parseReportCmd struct {
	app    *app
	images string
	output string
	tables string
}

func newParseReportCmd(a *app) *cobra.Command {
	pc := &parseReportCmd{app: a}
	cmd := &cobra.Command{
		Use:   "parse-report <full.md>",
		Short: "Segment a report into report_data.json",
		Args:  cobra.ExactArgs(1),
		RunE:  pc.run,
	}
	cmd.Flags().StringVar(&pc.images, "images", "", "Images directory (default images/ next to the report)")
	cmd.Flags().StringVarP(&pc.output, "output", "o", "", "Output JSON (default report_data.json next to the report)")
	cmd.Flags().StringVar(&pc.tables, "tables", "", "Also export every table to this xlsx workbook")
	return cmd
}

func (pc *parseReportCmd) run(cmd *cobra.Command, args []string) error {
	mdPath := args[0]
	images := pc.images
	if images == "" {
		images = filepath.Join(filepath.Dir(mdPath), "images")
	}
	r, err := report.NewParser(mdPath, images).Parse()
	if err != nil {
		return err
	}
	report.Enrich(r)

	out := pc.output
	if out == "" {
		out = filepath.Join(filepath.Dir(mdPath), "report_data.json")
	}
	if err := report.WriteJSON(r, out); err != nil {
		return err
	}
	pc.app.log.Info("report parsed", "parts", len(r.Parts), "sections", r.SectionCount(), "output", out)

	if pc.tables != "" {
		n, err := report.ExportTables(r, pc.tables)
		if err != nil {
			return fmt.Errorf("export tables: %w", err)
		}
		pc.app.log.Info("tables exported", "tables", n, "output", pc.tables)
	}
	return nil
}

type siteCmd struct {
	app     *app
	images  string
	output  string
	project string
}

func newSiteCmd(a *app) *cobra.Command {
	sc := &siteCmd{app: a}
	cmd := &cobra.Command{
		Use:   "site <full.md|report_data.json>",
		Short: "Generate the static report website",
		Args:  cobra.ExactArgs(1),
		RunE:  sc.run,
	}
	cmd.Flags().StringVar(&sc.images, "images", "", "Images directory (default images/ next to the input)")
	cmd.Flags().StringVarP(&sc.output, "output", "o", "site", "Output directory")
	cmd.Flags().StringVar(&sc.project, "project", "", "Project name shown in the page title")
	return cmd
}

func (sc *siteCmd) run(cmd *cobra.Command, args []string) error {
	in := args[0]
	opts := site.Options{
		OutputDir: sc.output,
		ImagesDir: sc.images,
		Project:   sc.project,
		Log:       sc.app.log,
	}

	if !strings.EqualFold(filepath.Ext(in), ".json") {
		r, err := site.BuildFromMarkdown(in, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sections -> %s\n", site.Title(r), r.SectionCount(), filepath.Join(sc.output, "index.html"))
		return nil
	}

	r, err := report.ReadJSON(in)
	if err != nil {
		return err
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = filepath.Join(filepath.Dir(in), "images")
	}
	if sc.project != "" {
		r.Meta.Project = sc.project
	}
	if err := site.Generate(r, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sections -> %s\n", site.Title(r), r.SectionCount(), filepath.Join(sc.output, "index.html"))
	return nil
}
