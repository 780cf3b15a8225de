package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gemdale/reportkit/internal/mineru"
	"github.com/gemdale/reportkit/internal/officepdf"
	"github.com/gemdale/reportkit/internal/pdfextract"
	"github.com/gemdale/reportkit/internal/retry"
	"github.com/spf13/cobra"
)

type minerUCmd struct {
	app      *app
	output   string
	token    string
	maxPolls int
	delay    int
}

func newMinerUCmd(a *app) *cobra.Command {
	mc := &minerUCmd{app: a}
	cmd := &cobra.Command{
		Use:   "mineru <file.pdf|dir>",
		Short: "Parse PDFs with MinerU into full.md and images",
		Args:  cobra.ExactArgs(1),
		RunE:  mc.run,
	}
	cmd.Flags().StringVarP(&mc.output, "output", "o", "output", "Output directory")
	cmd.Flags().StringVarP(&mc.token, "token", "t", "", "MinerU API token (default MINERU_TOKEN)")
	cmd.Flags().IntVar(&mc.maxPolls, "max-retries", a.cfg.MinerUMaxPolls, "Maximum result polls")
	cmd.Flags().IntVar(&mc.delay, "delay", int(a.cfg.MinerUPollInterval/time.Second), "Seconds between polls")
	return cmd
}

func (mc *minerUCmd) run(cmd *cobra.Command, args []string) error {
	token := mc.token
	if token == "" {
		token = mc.app.cfg.MinerUToken
	}
	client, err := mineru.NewClient(token,
		mineru.WithBaseURL(mc.app.cfg.MinerUBaseURL),
		mineru.WithModelVersion(mc.app.cfg.MinerUModelVersion),
		mineru.WithPolling(mc.maxPolls, time.Duration(mc.delay)*time.Second),
		mineru.WithLogger(mc.app.log),
	)
	if err != nil {
		return err
	}

	in := args[0]
	info, err := os.Stat(in)
	if err != nil {
		return err
	}
	var dirs []string
	if info.IsDir() {
		dirs, err = client.ProcessDirectory(cmd.Context(), in, mc.output)
	} else {
		var dir string
		dir, err = client.ParseAndExtract(cmd.Context(), in, mc.output)
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	for _, d := range dirs {
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(d, "full.md"))
	}
	if err != nil && retry.IsRetryable(err) {
		return fmt.Errorf("%w (transient, try again later)", err)
	}
	return err
}

func newPDFExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf-extract <file.pdf> [out]",
		Short: "Dump PDF text as per-page JSON and markdown",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := filepath.Dir(args[0])
			if len(args) == 2 {
				out = args[1]
			}
			res, err := pdfextract.Extract(args[0], out)
			if err != nil {
				return err
			}
			a.log.Info("pdf extracted", "file", res.FileName, "pages", res.TotalPages, "output", out)
			return nil
		},
	}
}

type pptx2pdfCmd struct {
	app         *app
	output      string
	batch       bool
	recursive   bool
	libreoffice string
}

func newPPTX2PDFCmd(a *app) *cobra.Command {
	pc := &pptx2pdfCmd{app: a}
	cmd := &cobra.Command{
		Use:   "pptx2pdf <file.pptx|dir>",
		Short: "Convert decks to PDF with LibreOffice",
		Args:  cobra.ExactArgs(1),
		RunE:  pc.run,
	}
	cmd.Flags().StringVarP(&pc.output, "output", "o", "", "Output directory (default next to the input)")
	cmd.Flags().BoolVarP(&pc.batch, "batch", "b", false, "Convert every .pptx in the input directory")
	cmd.Flags().BoolVarP(&pc.recursive, "recursive", "r", false, "Convert every .pptx below the input directory")
	cmd.Flags().StringVar(&pc.libreoffice, "libreoffice", a.cfg.LibreOfficePath, "LibreOffice executable")
	return cmd
}

func (pc *pptx2pdfCmd) run(cmd *cobra.Command, args []string) error {
	conv, err := officepdf.NewConverter(pc.libreoffice, pc.app.log)
	if err != nil {
		return err
	}
	in := args[0]

	var outs []string
	switch {
	case pc.recursive:
		base := pc.output
		if base == "" {
			base = in
		}
		outs, err = conv.ConvertRecursive(cmd.Context(), in, base)
	case pc.batch:
		outs, err = conv.ConvertBatch(cmd.Context(), in, pc.output)
	default:
		var out string
		out, err = conv.ConvertFile(cmd.Context(), in, pc.output)
		if out != "" {
			outs = append(outs, out)
		}
	}
	for _, o := range outs {
		fmt.Fprintln(cmd.OutOrStdout(), o)
	}
	if err != nil {
		return err
	}
	if len(outs) == 0 {
		return fmt.Errorf("no presentations converted under %s", in)
	}
	return nil
}
