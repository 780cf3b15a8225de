package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gemdale/reportkit/internal/cric"
	"github.com/gemdale/reportkit/internal/deal"
	"github.com/gemdale/reportkit/internal/kaipan"
	"github.com/gemdale/reportkit/internal/llm"
	"github.com/gemdale/reportkit/internal/pptx"
	"github.com/gemdale/reportkit/internal/slides"
	"github.com/gemdale/reportkit/internal/supply"
	"github.com/gemdale/reportkit/internal/workspace"
)

// Stage names, in run order.
const (
	StageHousing            = "housing_data"
	StageLand               = "land_data"
	StageSupply             = "supply_data"
	StageDeal               = "deal_data"
	StageKaipanAnalysis     = "kaipan_analysis_data"
	StageFloorPlan          = "floor_plan_data"
	StageTable              = "table_data"
	StageSlideMaster        = "slide_master_data"
	StageTableAdd           = "table_add_data"
	StageAnalysisTable      = "analysis_table_data"
	StageKaipanLLMPage2     = "kaipan_llm_page2_data"
	StageImagePage2         = "image_page2_data"
	StageKaipanTablePage2   = "kaipan_table_page2_data"
	StagePicturePage3       = "picture_page3_data"
	StageTextPage3          = "text_page3_data"
	StageSurroundingSummary = "surrounding_summary_data"
	StagePage4Table         = "page4_table_data"
	StageSurroundingPage4   = "surrounding_summary_page4_data"
	StageCustomerAnalysis   = "customer_analysis_data"
	StageCustomerAnalysisP5 = "customer_analysis_page5_data"
	StagePiePage5           = "pie_page5_data"
)

var (
	errNoDeck         = errors.New("deck not created")
	errNoProjectTable = errors.New("no project table data")
	errEmptyInput     = errors.New("input is empty")
	errNoDecoration   = errors.New("no decoration data")
	errNoFloorPlans   = errors.New("no floor plan images found")
)

type stage struct {
	name string
	fn   func(context.Context, *runState) (string, error)
}

// runState carries what earlier stages produced to later ones.
type runState struct {
	ws       workspace.Workspace
	manifest *workspace.Manifest

	housingLines []string
	housing      *cric.Housing
	land         *cric.Land
	projectTable [][]string
	deals        *deal.Result
	deck         *pptx.Presentation
}

func (r *Runner) stages() []stage {
	return []stage{
		{StageHousing, r.housingStage},
		{StageLand, r.landStage},
		{StageSupply, r.supplyStage},
		{StageDeal, r.dealStage},
		{StageKaipanAnalysis, r.kaipanAnalysisStage},
		{StageFloorPlan, r.floorPlanStage},
		{StageTable, r.tableStage},
		{StageSlideMaster, r.slideMasterStage},
		{StageTableAdd, r.tableAddStage},
		{StageAnalysisTable, r.analysisTableStage},
		{StageKaipanLLMPage2, r.kaipanSentenceStage},
		{StageImagePage2, r.salesImageStage},
		{StageKaipanTablePage2, r.kaipanTableStage},
		{StagePicturePage3, r.floorPlanPictureStage},
		{StageTextPage3, r.floorPlanTextStage},
		{StageSurroundingSummary, r.surroundingSummaryStage},
		{StagePage4Table, r.decorationTableStage},
		{StageSurroundingPage4, r.surroundingPage4Stage},
		{StageCustomerAnalysis, r.customerAnalysisStage},
		{StageCustomerAnalysisP5, r.customerPage5Stage},
		{StagePiePage5, r.regionPieStage},
	}
}

// StageNames lists the stages in run order.
func StageNames() []string {
	var r Runner
	var names []string
	for _, s := range r.stages() {
		names = append(names, s.name)
	}
	return names
}

func (st *runState) lines() ([]string, error) {
	if st.housingLines != nil {
		return st.housingLines, nil
	}
	lines, err := cric.ReadLines(st.ws.HousingInput())
	if err != nil {
		return nil, err
	}
	st.housingLines = lines
	return lines, nil
}

// editDeck opens the deck when no earlier stage holds it, applies fn
// and saves.
func (st *runState) editDeck(fn func(*pptx.Presentation) error) error {
	if st.deck == nil {
		deck, err := pptx.Open(st.ws.Deck())
		if errors.Is(err, os.ErrNotExist) {
			return errNoDeck
		}
		if err != nil {
			return err
		}
		st.deck = deck
	}
	if err := fn(st.deck); err != nil {
		return err
	}
	return st.deck.Save(st.ws.Deck())
}

func (r *Runner) housingStage(_ context.Context, st *runState) (string, error) {
	lines, err := st.lines()
	if err != nil {
		return "", err
	}
	h := cric.ParseHousing(lines)
	if err := cric.WriteJSON(h, st.ws.HousingJSON()); err != nil {
		return "", err
	}
	st.housing = h
	return st.ws.HousingJSON(), nil
}

func (r *Runner) landStage(_ context.Context, st *runState) (string, error) {
	l, err := cric.ParseLandFile(st.ws.LandInput())
	if err != nil {
		return "", err
	}
	if err := cric.WriteJSON(l, st.ws.LandJSON()); err != nil {
		return "", err
	}
	st.land = l
	return st.ws.LandJSON(), nil
}

func (r *Runner) supplyStage(_ context.Context, st *runState) (string, error) {
	units, err := supply.Load(st.ws.SupplyInput())
	if err != nil {
		return "", err
	}
	if err := supply.WriteWorkbook(supply.Analyze(units), st.ws.SupplyWorkbook()); err != nil {
		return "", err
	}
	return st.ws.SupplyWorkbook(), nil
}

func (r *Runner) kaipanAnalysisStage(_ context.Context, st *runState) (string, error) {
	lines, err := st.lines()
	if err != nil {
		return "", err
	}
	records, err := kaipan.ExtractRecords(lines)
	if err != nil {
		return "", err
	}
	if err := kaipan.WriteWorkbook(records, st.ws.KaipanWorkbook()); err != nil {
		return "", err
	}
	return st.ws.KaipanWorkbook(), nil
}

func (r *Runner) tableStage(_ context.Context, st *runState) (string, error) {
	h, l := st.housing, st.land
	if h == nil {
		h, _ = cric.ReadHousing(st.ws.HousingJSON())
	}
	if l == nil {
		l, _ = cric.ReadLand(st.ws.LandJSON())
	}
	if h == nil && l == nil {
		return "", fmt.Errorf("%w: neither housing nor land data available", errNoProjectTable)
	}
	st.projectTable = cric.ProjectTable(h, l)
	return fmt.Sprintf("%d rows", len(st.projectTable)), nil
}

func (r *Runner) slideMasterStage(_ context.Context, st *runState) (string, error) {
	deck, err := slides.CreateTemplate(st.ws.Project, st.manifest.Slides, st.manifest.HeaderImagePath())
	if err != nil {
		return "", err
	}
	if err := deck.Save(st.ws.Deck()); err != nil {
		return "", err
	}
	st.deck = deck
	return st.ws.Deck(), nil
}

func (r *Runner) tableAddStage(_ context.Context, st *runState) (string, error) {
	if st.projectTable == nil {
		return "", errNoProjectTable
	}
	opts := slides.DefaultDataTableOptions()
	if p := st.manifest.DataTable; p != nil {
		if p.Slide > 0 {
			opts.Slide = p.Slide
		}
		if p.Width > 0 {
			opts.Width = p.Width
		}
		if p.Height > 0 {
			opts.Height = p.Height
		}
		if p.Left > 0 {
			opts.Left = p.Left
		}
		if p.Top > 0 {
			opts.Top = p.Top
		}
	}
	err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddDataTable(deck, st.projectTable, opts)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("slide %d", opts.Slide), nil
}

// kaipanSentenceStage asks the LLM for the opening sentence and falls
// back to the keyword heuristic when no client is configured or the
// call fails. The heuristic reads the opening descriptions when the
// page has any, so section labels cannot win the keyword match.
func (r *Runner) kaipanSentenceStage(ctx context.Context, st *runState) (string, error) {
	lines, err := st.lines()
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", fmt.Errorf("%s: %w", st.ws.HousingInput(), errEmptyInput)
	}

	var sentence string
	client, err := r.analysts(TaskKaipan, st.manifest)
	if err == nil {
		err = r.withRetry(ctx, StageKaipanLLMPage2, func() error {
			var cerr error
			sentence, cerr = client.KaipanSentence(ctx, text)
			return cerr
		})
	}
	if err != nil {
		r.log.Info("kaipan sentence falls back to heuristic", "project", st.ws.Project, "error", err)
		sentence = kaipan.HeuristicSummary(openingText(lines, text))
	}
	sentence = kaipan.EnsureOneSentence(sentence)

	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddKaipanSummary(deck, sentence)
	}); err != nil {
		return "", err
	}
	return sentence, nil
}

func openingText(lines []string, fallback string) string {
	records, err := kaipan.ExtractRecords(lines)
	if err != nil {
		return fallback
	}
	descs := make([]string, 0, len(records))
	for _, rec := range records {
		descs = append(descs, rec.Description)
	}
	return strings.Join(descs, "\n")
}

func (r *Runner) kaipanTableStage(_ context.Context, st *runState) (string, error) {
	header, rows, err := kaipan.ReadWorkbook(st.ws.KaipanWorkbook())
	if err != nil {
		return "", err
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddKaipanTable(deck, header, rows)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d rows", len(rows)), nil
}

func (r *Runner) surroundingSummaryStage(ctx context.Context, st *runState) (string, error) {
	client, err := r.analysts(TaskSurroundings, st.manifest)
	if err != nil {
		return "", err
	}
	lines, err := cric.ReadLines(st.ws.SurroundingsInput())
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", fmt.Errorf("%s: %w", st.ws.SurroundingsInput(), errEmptyInput)
	}

	var summary string
	err = r.withRetry(ctx, StageSurroundingSummary, func() error {
		var cerr error
		summary, cerr = client.SummarizeSurroundings(ctx, text)
		return cerr
	})
	if err != nil {
		return "", err
	}
	if err := llm.WriteSurroundingSummary(st.ws.SurroundingSummary(), st.ws.Project, summary, r.now()); err != nil {
		return "", err
	}
	return st.ws.SurroundingSummary(), nil
}

func (r *Runner) decorationTableStage(_ context.Context, st *runState) (string, error) {
	lines, err := st.lines()
	if err != nil {
		return "", err
	}
	rows := cric.DecorationTable(lines)
	if len(rows) == 0 {
		return "", errNoDecoration
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddDecorationTable(deck, cric.DecorationHeader, rows)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d rows", len(rows)), nil
}

func (r *Runner) surroundingPage4Stage(_ context.Context, st *runState) (string, error) {
	text, err := llm.ReadSurroundingSummary(st.ws.SurroundingSummary())
	if err != nil {
		return "", err
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddSurroundingSummary(deck, text)
	}); err != nil {
		return "", err
	}
	return "slide 4", nil
}

func (r *Runner) customerAnalysisStage(ctx context.Context, st *runState) (string, error) {
	client, err := r.analysts(TaskCustomer, st.manifest)
	if err != nil {
		return "", err
	}
	address := st.manifest.Address
	if address == "" {
		h := st.housing
		if h == nil {
			h, _ = cric.ReadHousing(st.ws.HousingJSON())
		}
		if h != nil && h.Basic != nil {
			address = h.Basic.String("楼盘地址")
		}
	}

	var text string
	err = r.withRetry(ctx, StageCustomerAnalysis, func() error {
		var cerr error
		text, cerr = client.CustomerAnalysis(ctx, st.ws.Project, address)
		return cerr
	})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(st.ws.CustomerAnalysis(), []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write customer analysis: %w", err)
	}
	return st.ws.CustomerAnalysis(), nil
}

func (r *Runner) customerPage5Stage(_ context.Context, st *runState) (string, error) {
	data, err := os.ReadFile(st.ws.CustomerAnalysis())
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s: %w", st.ws.CustomerAnalysis(), errEmptyInput)
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddCustomerAnalysis(deck, text)
	}); err != nil {
		return "", err
	}
	return "slide 5", nil
}

func (r *Runner) dealStage(_ context.Context, st *runState) (string, error) {
	deals, err := deal.Load(st.ws.DealInput(), st.ws.Project)
	if err != nil {
		return "", err
	}
	res, err := deal.Analyze(deals, st.manifest.Classification(), deal.MinDeals)
	if err != nil {
		return "", err
	}
	if err := deal.WriteWorkbook(res, st.ws.DealWorkbook()); err != nil {
		return "", err
	}
	st.deals = res
	return st.ws.DealWorkbook(), nil
}

// floorPlanStage reviews every configured floor plan. A missing image or
// failed call is recorded in the file in place of its review; the stage
// fails only when no image could be reviewed.
func (r *Runner) floorPlanStage(ctx context.Context, st *runState) (string, error) {
	client, err := r.analysts(TaskFloorPlan, st.manifest)
	if err != nil {
		return "", err
	}
	images := st.manifest.FloorPlanImages()
	reviews := make([]llm.FloorPlanReview, len(images))
	ok := 0
	for i, img := range images {
		reviews[i].Image = img
		if _, err := os.Stat(img); err != nil {
			reviews[i].Err = fmt.Errorf("图片不存在: %s", img)
			continue
		}
		err := r.withRetry(ctx, StageFloorPlan, func() error {
			var cerr error
			reviews[i].Text, cerr = client.ReviewFloorPlan(ctx, img)
			return cerr
		})
		if err != nil {
			r.log.Warn("floor plan review failed", "project", st.ws.Project, "image", img, "error", err)
			reviews[i].Err = err
			continue
		}
		ok++
	}
	if ok == 0 {
		return "", errNoFloorPlans
	}
	if err := llm.WriteFloorPlanAnalysis(st.ws.FloorPlanAnalysis(), reviews); err != nil {
		return "", fmt.Errorf("write floor plan analysis: %w", err)
	}
	return fmt.Sprintf("%d/%d reviewed", ok, len(images)), nil
}

func (r *Runner) analysisTableStage(_ context.Context, st *runState) (string, error) {
	rows, err := deal.ReadTable(st.ws.DealWorkbook())
	if err != nil {
		return "", err
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddAnalysisTable(deck, rows)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d rows", len(rows)-1), nil
}

// salesImageStage places the rendered sales chart when one was supplied
// and otherwise draws the monthly counts as a native chart.
func (r *Runner) salesImageStage(_ context.Context, st *runState) (string, error) {
	title := slides.SalesTitle(st.ws.Project, st.manifest.Classification())
	if _, err := os.Stat(st.ws.DealChart()); err == nil {
		if err := st.editDeck(func(deck *pptx.Presentation) error {
			return slides.AddSalesPicture(deck, title, st.ws.DealChart())
		}); err != nil {
			return "", err
		}
		return st.ws.DealChart(), nil
	}

	res := st.deals
	if res == nil {
		var err error
		if res, err = deal.ReadResult(st.ws.DealWorkbook(), st.manifest.Classification()); err != nil {
			return "", err
		}
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddSalesChart(deck, title, slides.SalesBars(res))
	}); err != nil {
		return "", err
	}
	return "chart", nil
}

func (r *Runner) floorPlanPictureStage(_ context.Context, st *runState) (string, error) {
	var placed int
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		var err error
		placed, err = slides.AddFloorPlanPictures(deck, st.manifest.FloorPlanImages())
		return err
	}); err != nil {
		return "", err
	}
	if placed == 0 {
		return "", errNoFloorPlans
	}
	return fmt.Sprintf("%d pictures", placed), nil
}

func (r *Runner) floorPlanTextStage(_ context.Context, st *runState) (string, error) {
	records, err := llm.ReadFloorPlanAnalysis(st.ws.FloorPlanAnalysis())
	if err != nil {
		return "", err
	}
	summaries := make([]string, len(records))
	for i, rec := range records {
		summaries[i] = rec.Summary
	}
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddFloorPlanText(deck, summaries)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d summaries", len(summaries)), nil
}

func (r *Runner) regionPieStage(_ context.Context, st *runState) (string, error) {
	data, err := os.ReadFile(st.ws.CustomerAnalysis())
	if err != nil {
		return "", err
	}
	shares := slides.ParseRegionShares(string(data))
	if err := st.editDeck(func(deck *pptx.Presentation) error {
		return slides.AddRegionPie(deck, shares)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d regions", len(shares)), nil
}
