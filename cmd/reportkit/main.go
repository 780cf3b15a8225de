// Command reportkit runs the report, CRIC, deck and conversion tools from
// the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/workspace"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	root    string
	date    string
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}
	cmd := &cobra.Command{
		Use:           "reportkit",
		Short:         "Real-estate investment report and deck tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	cmd.PersistentFlags().StringVar(&a.root, "root", a.cfg.WorkRoot, "Working data root")
	cmd.PersistentFlags().StringVar(&a.date, "date", "", "Run date as YYYYMMDD (default today)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(
		newParseReportCmd(a),
		newSiteCmd(a),
		newCRICCmd(a),
		newKaipanCmd(a),
		newSupplyCmd(a),
		newMinerUCmd(a),
		newPDFExtractCmd(a),
		newPPTX2PDFCmd(a),
		newTemplateCmd(a),
		newPipelineCmd(a),
		newKitchenCmd(a),
	)
	return cmd
}

// workspace resolves the project directory for the --root and --date
// flags and applies the input overrides from its manifest.
func (a *app) workspace(project string) (workspace.Workspace, *workspace.Manifest, error) {
	date := a.date
	if date == "" {
		date = time.Now().Format(workspace.DateLayout)
	}
	ws, err := workspace.Parse(a.root, project, date)
	if err != nil {
		return workspace.Workspace{}, nil, err
	}
	m, err := workspace.LoadManifest(ws.Dir())
	if err != nil {
		return workspace.Workspace{}, nil, err
	}
	return ws.WithInputs(m.Inputs), m, nil
}
