package main

import (
	"path/filepath"
	"time"

	"github.com/gemdale/reportkit/internal/procurement"
	"github.com/spf13/cobra"
)

type kitchenCmd struct {
	app          *app
	catalog      string
	template     string
	output       string
	printCatalog bool
}

func newKitchenCmd(a *app) *cobra.Command {
	kc := &kitchenCmd{app: a}
	cmd := &cobra.Command{
		Use:   "kitchen-deck",
		Short: "Generate the kitchen procurement deck (现代幸福厨房)",
		Args:  cobra.NoArgs,
		RunE:  kc.run,
	}
	cmd.Flags().StringVar(&kc.catalog, "catalog", "", "Catalog YAML (default the built-in catalog)")
	cmd.Flags().StringVar(&kc.template, "template", "", "Theme pptx whose size and masters back the deck")
	cmd.Flags().StringVarP(&kc.output, "output", "o", "", "Output pptx (default <root>/procurement/现代幸福厨房_<time>.pptx)")
	cmd.Flags().BoolVar(&kc.printCatalog, "print-catalog", false, "Print the built-in catalog YAML and exit")
	return cmd
}

func (kc *kitchenCmd) run(cmd *cobra.Command, _ []string) error {
	if kc.printCatalog {
		_, err := cmd.OutOrStdout().Write(procurement.DefaultCatalogYAML())
		return err
	}

	var (
		c   *procurement.Catalog
		err error
	)
	if kc.catalog != "" {
		c, err = procurement.LoadCatalog(kc.catalog)
	} else {
		c, err = procurement.DefaultCatalog()
	}
	if err != nil {
		return err
	}

	now := time.Now()
	deck, err := procurement.Generate(c, procurement.Options{Template: kc.template, Now: now, Log: kc.app.log})
	if err != nil {
		return err
	}
	out := kc.output
	if out == "" {
		out = filepath.Join(kc.app.root, "procurement", "现代幸福厨房_"+now.Format("20060102_150405")+".pptx")
	}
	if err := deck.Save(out); err != nil {
		return err
	}
	kc.app.log.Info("kitchen deck created", "slides", deck.SlideCount(), "output", out)
	return nil
}
