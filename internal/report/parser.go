package report

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gemdale/reportkit/internal/parser"
)

// ErrNoParts is returned when a report contains no PART headers.
var ErrNoParts = errors.New("no parts found")

var (
	partRe    = regexp.MustCompile(`(?i)^(?:#\s+)?(PART\d+|Part\s*\d+)\s*(.+)`)
	sectionRe = regexp.MustCompile(`^#\s+(\d+|\d+\.\d+)\s+(.+)`)
	imageRe   = regexp.MustCompile(`^!\[\]\(images/([^)]+)\)`)
	bulletRe  = regexp.MustCompile(`^\s*[-•●]\s+`)
	numberRe  = regexp.MustCompile(`^\s*\d+[、.]\s+`)
	optionRe  = regexp.MustCompile(`(?i)方案\s*([一二三四五六七八九十\d]+)|Option\s*([A-Z])|方案(\d+)`)
)

var partIDs = map[string]string{
	"PART1": "part1",
	"PART2": "part2",
	"PART3": "part3",
	"PART4": "part4",
	"PART5": "part5",
	"PART6": "part6",
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// Parser segments one report file.
type Parser struct {
	mdPath    string
	imagesDir string

	lines  []string
	images []string
	loaded bool
}

func NewParser(mdPath, imagesDir string) *Parser {
	return &Parser{mdPath: mdPath, imagesDir: imagesDir}
}

// Load reads the report lines and lists the images available next to it.
func (p *Parser) Load() error {
	doc, err := parser.ReadFile(p.mdPath)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	p.lines = doc.Lines

	p.images = nil
	if p.imagesDir != "" {
		entries, err := os.ReadDir(p.imagesDir)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("list images: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				p.images = append(p.images, e.Name())
			}
		}
	}
	p.loaded = true
	return nil
}

// Images returns the image file names found by Load.
func (p *Parser) Images() []string {
	return p.images
}

// Parse segments the report. It loads the file first when Load has not
// been called.
func (p *Parser) Parse() (*Report, error) {
	if !p.loaded {
		if err := p.Load(); err != nil {
			return nil, err
		}
	}
	r := ParseLines(p.lines, p.sourceName())
	if len(r.Parts) == 0 {
		return r, fmt.Errorf("%s: %w", p.mdPath, ErrNoParts)
	}
	return r, nil
}

func (p *Parser) sourceName() string {
	base := filepath.Base(p.mdPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseLines runs the segmentation over already-loaded lines.
func ParseLines(lines []string, source string) *Report {
	r := &Report{Meta: extractMeta(lines, source), Parts: []*Part{}}

	var current *Part
	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t\r\n")

		if m := partRe.FindStringSubmatch(line); m != nil {
			label := strings.ToUpper(m[1])
			id, ok := partIDs[label]
			if !ok {
				id = "part" + strconv.Itoa(len(r.Parts)+1)
			}
			current = &Part{PartID: id, Title: strings.TrimSpace(m[2])}
			r.Parts = append(r.Parts, current)
		}

		m := sectionRe.FindStringSubmatch(line)
		if m == nil || current == nil {
			continue
		}
		num, title := m[1], strings.TrimSpace(m[2])
		sec := &Section{
			ID:     fmt.Sprintf("section_%d_%s", len(current.Sections)+1, shortHash(title)),
			Title:  title,
			Blocks: parseBlocks(lines, i),
		}

		if strings.Contains(num, ".") {
			current.Sections = append(current.Sections, sec)
			continue
		}
		n, _ := strconv.Atoi(num)
		target := n - 1
		switch {
		case target < 0:
			// Section 0 switches to the last part.
			current = r.Parts[len(r.Parts)-1]
			current.Sections = append(current.Sections, sec)
		case target < len(r.Parts):
			current = r.Parts[target]
			current.Sections = append(current.Sections, sec)
		case target == len(r.Parts):
			current.Sections = append(current.Sections, sec)
		default:
			last := r.Parts[len(r.Parts)-1]
			last.Sections = append(last.Sections, sec)
		}
	}

	for _, part := range r.Parts {
		if strings.EqualFold(part.PartID, "part4") {
			part.Part4Options = extractPart4Options(part)
		}
	}
	return r
}

func extractMeta(lines []string, source string) Meta {
	meta := Meta{Title: "投资分析报告", Source: source}
	if len(lines) == 0 {
		return meta
	}
	first := strings.TrimSpace(lines[0])
	if first != "" && !strings.HasPrefix(first, "#") {
		meta.Project = first
	} else if len(lines) > 1 {
		second := strings.TrimSpace(lines[1])
		if strings.HasPrefix(second, "#") {
			meta.Project = strings.TrimSpace(strings.TrimLeft(second, "#"))
		}
	}
	return meta
}

// parseBlocks collects the blocks following the header at index start,
// up to the next line that begins with '#'.
func parseBlocks(lines []string, start int) []Block {
	blocks := []Block{}
	i := start + 1
	for i < len(lines) {
		line := strings.TrimRight(lines[i], " \t\r\n")

		if strings.HasPrefix(line, "#") {
			break
		}

		if m := imageRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, newBlock(BlockImage, m[1]))
			i++
			continue
		}

		if strings.Contains(line, "<table>") {
			table := []string{line}
			if !strings.Contains(line, "</table>") {
				i++
				for i < len(lines) && !strings.Contains(lines[i], "</table>") {
					table = append(table, strings.TrimRight(lines[i], " \t\r\n"))
					i++
				}
				if i < len(lines) {
					table = append(table, strings.TrimRight(lines[i], " \t\r\n"))
				}
			}
			blocks = append(blocks, newBlock(BlockTable, strings.Join(table, "\n")))
			i++
			continue
		}

		if isListItem(line) {
			items := []string{line}
			i++
			for i < len(lines) {
				next := strings.TrimRight(lines[i], " \t\r\n")
				if strings.TrimSpace(next) == "" || strings.HasPrefix(next, "#") ||
					strings.Contains(next, "<table>") || strings.Contains(next, "![](images/") {
					break
				}
				if !isListItem(next) {
					break
				}
				items = append(items, next)
				i++
			}
			blocks = append(blocks, newBlock(BlockList, strings.Join(items, "\n")))
			continue
		}

		if strings.TrimSpace(line) != "" {
			blocks = append(blocks, newBlock(BlockText, line))
		}
		i++
	}
	return blocks
}

func isListItem(line string) bool {
	return bulletRe.MatchString(line) || numberRe.MatchString(line)
}

func newBlock(t BlockType, content string) Block {
	return Block{Type: t, Content: content, Metadata: map[string]any{}}
}

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

func extractPart4Options(part *Part) []Part4Option {
	var options []Part4Option
	for _, sec := range part.Sections {
		for _, b := range sec.Blocks {
			if b.Type != BlockText {
				continue
			}
			m := optionRe.FindStringSubmatch(b.Content)
			if m == nil {
				continue
			}
			num := m[1]
			if num == "" {
				num = m[2]
			}
			if num == "" {
				num = m[3]
			}
			options = append(options, Part4Option{
				OptionID:    fmt.Sprintf("option_%d", len(options)+1),
				OptionTitle: "方案" + normalizeOptionNum(num),
				SourcePages: []string{sec.ID},
				Assets:      Assets{Images: []string{}, Tables: []string{}, Models: []string{}},
				Advantages:  []string{},
			})
		}
	}
	return options
}

var cnDigits = []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

func normalizeOptionNum(num string) string {
	n, err := strconv.Atoi(num)
	if err != nil {
		return num
	}
	if n >= 0 && n <= 10 {
		return cnDigits[n]
	}
	return num
}
