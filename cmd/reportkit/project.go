package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gemdale/reportkit/internal/cric"
	"github.com/gemdale/reportkit/internal/kaipan"
	"github.com/gemdale/reportkit/internal/llm"
	"github.com/gemdale/reportkit/internal/pipeline"
	"github.com/gemdale/reportkit/internal/slides"
	"github.com/gemdale/reportkit/internal/supply"
	"github.com/spf13/cobra"
)

func newCRICCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cric",
		Short: "Parse CRIC text exports into processed JSON",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "housing <project> <file>",
			Short: "Parse a housing (楼盘) export",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, _, err := a.workspace(args[0])
				if err != nil {
					return err
				}
				h, err := cric.ParseHousingFile(args[1])
				if err != nil {
					return err
				}
				if err := ws.Ensure(); err != nil {
					return err
				}
				if err := cric.WriteJSON(h, ws.HousingJSON()); err != nil {
					return err
				}
				a.log.Info("housing parsed", "openings", len(h.Openings), "output", ws.HousingJSON())
				return nil
			},
		},
		&cobra.Command{
			Use:   "land <project> <file>",
			Short: "Parse a land (土地) export",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, _, err := a.workspace(args[0])
				if err != nil {
					return err
				}
				l, err := cric.ParseLandFile(args[1])
				if err != nil {
					return err
				}
				if err := ws.Ensure(); err != nil {
					return err
				}
				if err := cric.WriteJSON(l, ws.LandJSON()); err != nil {
					return err
				}
				a.log.Info("land parsed", "output", ws.LandJSON())
				return nil
			},
		},
	)
	return cmd
}

func newKaipanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kaipan <project>",
		Short: "Extract opening records from the housing input into the 开盘信息 workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := a.workspace(args[0])
			if err != nil {
				return err
			}
			records, err := kaipan.ExtractFile(ws.HousingInput())
			if err != nil {
				return err
			}
			if err := ws.Ensure(); err != nil {
				return err
			}
			if err := kaipan.WriteWorkbook(records, ws.KaipanWorkbook()); err != nil {
				return err
			}
			a.log.Info("opening records extracted", "records", len(records), "output", ws.KaipanWorkbook())
			return nil
		},
	}
}

func newSupplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "supply <project> <file>",
		Short: "Analyse a supply detail sheet into the 供应明细表 workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := a.workspace(args[0])
			if err != nil {
				return err
			}
			units, err := supply.Load(args[1])
			if err != nil {
				return err
			}
			analysis := supply.Analyze(units)
			if err := ws.Ensure(); err != nil {
				return err
			}
			if err := supply.WriteWorkbook(analysis, ws.SupplyWorkbook()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), analysis.Summary())
			a.log.Info("supply analysed", "units", len(units), "output", ws.SupplyWorkbook())
			return nil
		},
	}
}

type templateCmd struct {
	app    *app
	slides int
	header string
	output string
}

func newTemplateCmd(a *app) *cobra.Command {
	tc := &templateCmd{app: a}
	cmd := &cobra.Command{
		Use:   "template <project>",
		Short: "Create the branded project deck",
		Args:  cobra.ExactArgs(1),
		RunE:  tc.run,
	}
	cmd.Flags().IntVar(&tc.slides, "slides", 0, "Number of slides (default from project.yaml, else 5)")
	cmd.Flags().StringVar(&tc.header, "header", "", "Header image (default from project.yaml)")
	cmd.Flags().StringVarP(&tc.output, "output", "o", "", "Output pptx (default the workspace deck)")
	return cmd
}

func (tc *templateCmd) run(cmd *cobra.Command, args []string) error {
	project := args[0]
	ws, m, err := tc.app.workspace(project)
	if err != nil {
		return err
	}
	n := tc.slides
	if n <= 0 {
		n = m.Slides
	}
	header := tc.header
	if header == "" {
		header = m.HeaderImagePath()
	}

	deck, err := slides.CreateTemplate(project, n, header)
	if err != nil {
		return err
	}
	out := tc.output
	if out == "" {
		if err := ws.Ensure(); err != nil {
			return err
		}
		out = ws.Deck()
	}
	if err := deck.Save(out); err != nil {
		return err
	}
	tc.app.log.Info("template created", "slides", deck.SlideCount(), "output", out)
	return nil
}

func newPipelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline <project>",
		Short: "Run every processing stage for a project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, m, err := a.workspace(args[0])
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(a.cfg, a.log, pipeline.WithStats(llm.NewStats(time.Hour)))
			res := runner.Run(cmd.Context(), ws, m)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.Status == pipeline.StatusFailed {
				return fmt.Errorf("pipeline failed for %s", ws.Dir())
			}
			return nil
		},
	}
}
