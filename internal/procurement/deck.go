package procurement

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gemdale/reportkit/internal/pptx"
)

var (
	ink      = pptx.RGB{R: 51, G: 51, B: 51}
	muted    = pptx.RGB{R: 102, G: 102, B: 102}
	faint    = pptx.RGB{R: 153, G: 153, B: 153}
	accent   = pptx.RGB{R: 0, G: 102, B: 204}
	positive = pptx.RGB{R: 0, G: 153, B: 76}
	stripe   = pptx.RGB{R: 242, G: 242, B: 242}

	packageColors = []pptx.RGB{
		{R: 102, G: 153, B: 204},
		{R: 153, G: 102, B: 204},
		{R: 204, G: 102, B: 102},
		{R: 0, G: 153, B: 76},
	}
)

// Options controls Generate.
type Options struct {
	// Template is an optional .pptx whose size and masters back the deck.
	// Without one the deck is 10in x 7.5in.
	Template string
	Now      time.Time
	Log      *slog.Logger
}

type builder struct {
	deck *pptx.Presentation
	cat  *Catalog
	w, h float64
	now  time.Time
	log  *slog.Logger
}

// Generate lays the catalog out as a deck of c.SlideCount() pages.
// Images that are missing or unreadable are logged and left out.
func Generate(c *Catalog, opts Options) (*pptx.Presentation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var (
		deck *pptx.Presentation
		err  error
	)
	if opts.Template != "" {
		deck, err = pptx.OpenTemplate(opts.Template)
	} else {
		deck, err = pptx.New(pptx.Inches(10), pptx.Inches(7.5))
	}
	if err != nil {
		return nil, err
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	w, h := deck.SlideSize()
	b := &builder{deck: deck, cat: c, w: pptx.ToInches(w), h: pptx.ToInches(h), now: opts.Now, log: opts.Log}

	steps := []func() error{b.cover, b.outline, b.overview}
	for _, s := range c.Sections {
		steps = append(steps, func() error { return b.sectionCover(s) }, func() error { return b.products(s) })
	}
	steps = append(steps, b.supplierMatrix, b.packages)
	for _, a := range c.Appendices {
		steps = append(steps, func() error { return b.appendix(a) })
	}
	for i, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return deck, nil
}

// Contents lists the deck structure as printed on the outline page.
func Contents(c *Catalog) []string {
	out := []string{"03. 幸福厨房五大理念总览"}
	page := 4
	for _, s := range c.Sections {
		out = append(out, fmt.Sprintf("%02d-%02d. %s区：%s", page, page+1, s.Key, s.Title))
		page += 2
	}
	out = append(out,
		fmt.Sprintf("%02d. 供应商资源矩阵", page),
		fmt.Sprintf("%02d. 方案落地组合包", page+1),
	)
	page += 2
	switch n := len(c.Appendices); n {
	case 0:
	case 1:
		out = append(out, fmt.Sprintf("%02d. 附录与来源", page))
	default:
		out = append(out, fmt.Sprintf("%02d-%02d. 附录与来源", page, page+n-1))
	}
	return out
}

// Clip shortens s to n characters, marking the cut with "...".
func Clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func para(text string, size float64, bold bool, color pptx.RGB, spaceAfter float64) pptx.Paragraph {
	p := pptx.Para(text, pptx.Font{Size: size, Bold: bold, Color: &color})
	p.SpaceAfter = spaceAfter
	return p
}

func (b *builder) title(s *pptx.Slide, text string, top, size float64) error {
	p := para(text, size, true, ink, 0)
	p.Align = pptx.AlignLeft
	return s.AddTextbox(pptx.InchRect(0.5, top, b.w-1.0, 0.7), []pptx.Paragraph{p}, pptx.WordWrap())
}

// picture places an optional image and reports whether it was placed.
func (b *builder) picture(s *pptx.Slide, r pptx.Rect, path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		b.log.Warn("procurement image missing", "path", path)
		return false
	}
	if _, err := s.AddPicture(r, path); err != nil {
		b.log.Warn("procurement image skipped", "path", path, "error", err)
		return false
	}
	return true
}

func (b *builder) cover() error {
	s := b.deck.AddSlide()
	if b.picture(s, pptx.InchRect(0, 0, b.w, b.h), b.cat.Cover) {
		if err := s.AddRect(pptx.InchRect(0.8, 2.3, b.w-1.6, 3.7), pptx.White); err != nil {
			return err
		}
	}
	lines := []struct {
		text string
		top  float64
		h    float64
		size float64
		bold bool
		col  pptx.RGB
	}{
		{b.cat.Title, 2.5, 1.2, 48, true, ink},
		{b.cat.Subtitle, 3.8, 0.8, 24, false, muted},
		{b.cat.Department + " | " + b.now.Format("2006年01月"), 5.2, 0.6, 16, false, faint},
	}
	for _, l := range lines {
		p := para(l.text, l.size, l.bold, l.col, 0)
		p.Align = pptx.AlignCenter
		if err := s.AddTextbox(pptx.InchRect(1, l.top, b.w-2, l.h), []pptx.Paragraph{p}); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) outline() error {
	s := b.deck.AddSlide()
	if err := b.title(s, "目录与方法", 0.5, 28); err != nil {
		return err
	}
	half := b.w/2 - 0.8
	left := []pptx.Paragraph{para("筛选口径", 18, true, ink, 10)}
	for _, item := range b.cat.Criteria {
		left = append(left, para("● "+item, 13, false, ink, 6))
	}
	if err := s.AddTextbox(pptx.InchRect(0.6, 1.3, half, 5), left, pptx.WordWrap()); err != nil {
		return err
	}
	right := []pptx.Paragraph{para("PPT结构", 18, true, ink, 10)}
	for _, item := range Contents(b.cat) {
		right = append(right, para(item, 12, false, ink, 5))
	}
	return s.AddTextbox(pptx.InchRect(b.w/2+0.2, 1.3, half, 5), right, pptx.WordWrap())
}

func (b *builder) overview() error {
	s := b.deck.AddSlide()
	if err := b.title(s, "幸福厨房五大理念 + 一体化架构", 0.4, 28); err != nil {
		return err
	}
	tags := []pptx.Paragraph{para("幸福厨房五大理念", 18, true, ink, 8)}
	for _, t := range b.cat.Tags {
		tags = append(tags, para(t, 15, false, accent, 4))
	}
	if err := s.AddTextbox(pptx.InchRect(0.6, 1.3, b.w-1.2, 2.2), tags, pptx.WordWrap()); err != nil {
		return err
	}
	arch := []pptx.Paragraph{para("天地门墙柜燃电一体化架构", 18, true, ink, 8)}
	for _, a := range b.cat.Architecture {
		arch = append(arch, para("• "+a, 12, false, ink, 3))
	}
	return s.AddTextbox(pptx.InchRect(0.6, 3.8, b.w-1.2, 2.5), arch, pptx.WordWrap())
}

// sectionCover puts the section image on the right when there is one and
// narrows the text column to match.
func (b *builder) sectionCover(sec Section) error {
	s := b.deck.AddSlide()
	width := b.w - 1.0
	if b.picture(s, pptx.InchRect(b.w-4.9, 1.2, 4.5, 5), sec.Image) {
		width = 4.5
	}
	if err := b.title(s, sec.Heading(), 0.5, 30); err != nil {
		return err
	}
	sub := []pptx.Paragraph{para(sec.Subtitle, 16, false, muted, 0)}
	if err := s.AddTextbox(pptx.InchRect(0.6, 1.2, width, 0.5), sub, pptx.WordWrap()); err != nil {
		return err
	}
	trends := []pptx.Paragraph{para("关键趋势", 20, true, ink, 12)}
	for i, t := range sec.Trends {
		trends = append(trends, para(fmt.Sprintf("%d. %s", i+1, t), 14, false, ink, 10))
	}
	return s.AddTextbox(pptx.InchRect(0.6, 2, width, 4.5), trends, pptx.WordWrap())
}

func (b *builder) card(s *pptx.Slide, r pptx.Rect, heading string, color pptx.RGB, lines []string) error {
	paras := []pptx.Paragraph{para(heading, 14, true, color, 6)}
	for _, l := range lines {
		paras = append(paras, para(l, 11, false, ink, 4))
	}
	return s.AddTextbox(r, paras, pptx.WordWrap())
}

// products lays the section's products out in equal columns.
func (b *builder) products(sec Section) error {
	s := b.deck.AddSlide()
	if err := b.title(s, sec.Heading()+" - 创新产品推荐", 0.4, 26); err != nil {
		return err
	}
	const gap = 0.4
	n := float64(len(sec.Products))
	colW := (b.w - 1.2 - gap*(n-1)) / n
	for i, p := range sec.Products {
		left := 0.6 + float64(i)*(colW+gap)
		top := 1.1
		if b.picture(s, pptx.InchRect(left, top, colW, 2), p.Image) {
			top += 2.2
		}

		name := para(p.Name, 16, true, accent, 0)
		if err := s.AddTextbox(pptx.InchRect(left, top, colW, 0.5), []pptx.Paragraph{name}, pptx.WordWrap()); err != nil {
			return err
		}
		top += 0.55
		tags := para(strings.Join(p.Tags, " | "), 10, false, muted, 0)
		if err := s.AddTextbox(pptx.InchRect(left, top, colW, 0.35), []pptx.Paragraph{tags}); err != nil {
			return err
		}
		top += 0.4
		pos := pptx.Para(p.Position, pptx.Font{Size: 10, Italic: true, Color: &muted})
		if err := s.AddTextbox(pptx.InchRect(left, top, colW, 0.35), []pptx.Paragraph{pos}, pptx.WordWrap()); err != nil {
			return err
		}
		top += 0.45
		if err := b.card(s, pptx.InchRect(left, top, colW, 0.7), "创新技术", ink, []string{Clip(p.Innovation, 60)}); err != nil {
			return err
		}
		top += 0.8
		lines := []string{"阶段：" + p.Stage}
		if p.Params != "" {
			lines = append(lines, "参数："+Clip(p.Params, 30))
		}
		lines = append(lines, Clip(p.Reason, 50))
		if err := b.card(s, pptx.InchRect(left, top, colW, 0.7), "阶段与理由", positive, lines); err != nil {
			return err
		}
	}
	return nil
}

// supplierMatrix is one table: a dark heading row per section followed by
// its suppliers.
func (b *builder) supplierMatrix() error {
	s := b.deck.AddSlide()
	if err := b.title(s, "供应商资源矩阵", 0.4, 28); err != nil {
		return err
	}
	widths := []float64{2.2, 1.1, 0.8, b.w - 1.0 - 4.1}
	head := []string{"供应商", "定位", "成本", "核心优势"}
	t := pptx.Table{}
	for _, w := range widths {
		t.ColWidths = append(t.ColWidths, pptx.Inches(w))
	}
	row := make([]pptx.Cell, len(head))
	for i, h := range head {
		row[i] = pptx.Cell{Text: h, Font: pptx.Font{Size: 11, Bold: true, Color: &ink}, Fill: &stripe}
	}
	t.Rows = append(t.Rows, row)
	for _, sec := range b.cat.Sections {
		band := make([]pptx.Cell, len(head))
		for i := range band {
			band[i] = pptx.Cell{Fill: &ink}
		}
		band[0].Text = sec.Heading()
		band[0].Font = pptx.Font{Size: 11, Bold: true, Color: &pptx.White}
		t.Rows = append(t.Rows, band)
		for _, sup := range sec.Suppliers {
			f := pptx.Font{Size: 9, Color: &ink}
			t.Rows = append(t.Rows, []pptx.Cell{
				{Text: Clip(sup.Name, 25), Font: f},
				{Text: sup.Level, Font: f},
				{Text: sup.Cost, Font: f, Align: pptx.AlignCenter},
				{Text: Clip(sup.Advantage, 38), Font: f},
			})
		}
	}
	t.RowHeight = pptx.Inches(min(0.4, (b.h-1.5)/float64(len(t.Rows))))
	return s.AddTable(pptx.InchRect(0.5, 1.2, 0, 0), t)
}

func (b *builder) packages() error {
	s := b.deck.AddSlide()
	if err := b.title(s, "方案落地组合包推荐", 0.4, 28); err != nil {
		return err
	}
	colW := (b.w - 1.0) / float64(len(b.cat.Packages))
	for i, pkg := range b.cat.Packages {
		left := 0.5 + float64(i)*colW
		top, height := 1.3, 5.2
		if b.picture(s, pptx.InchRect(left, top, colW-0.1, 1.5), pkg.Image) {
			top += 1.6
			height = 3.6
		}
		color := packageColors[i%len(packageColors)]
		centre := func(p pptx.Paragraph) pptx.Paragraph {
			p.Align = pptx.AlignCenter
			return p
		}
		paras := []pptx.Paragraph{
			centre(para(pkg.Name, 18, true, color, 8)),
			centre(para("预算："+pkg.Budget, 13, true, ink, 8)),
			centre(para(pkg.Description, 11, false, muted, 8)),
			para("核心配置", 12, true, ink, 4),
		}
		for _, item := range pkg.Items {
			paras = append(paras, para("• "+item, 9, false, ink, 2))
		}
		paras = append(paras, pptx.Para("适用："+pkg.Target, pptx.Font{Size: 10, Italic: true, Color: &faint}))
		if err := s.AddTextbox(pptx.InchRect(left, top, colW-0.1, height), paras, pptx.WordWrap()); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) appendix(a Appendix) error {
	s := b.deck.AddSlide()
	if err := b.title(s, a.Title, 0.4, 26); err != nil {
		return err
	}
	lines := a.Lines
	if a.Signed {
		lines = append(append([]string{}, lines...),
			"编制单位："+b.cat.Department,
			"编制日期："+b.now.Format("2006年01月02日"),
		)
	}
	paras := make([]pptx.Paragraph, len(lines))
	for i, l := range lines {
		paras[i] = para(l, 11, false, ink, 6)
	}
	return s.AddTextbox(pptx.InchRect(0.6, 1.2, b.w-1.2, 5.5), paras, pptx.WordWrap())
}
