package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultVisionModel reads floor plan images.
const DefaultVisionModel = "Qwen/Qwen2.5-VL-32B-Instruct"

// NoFloorPlanSummary stands in for a record without a 总体评价 section.
const NoFloorPlanSummary = "（未找到总体评价）"

var floorPlanSeparator = strings.Repeat("=", 50) + "\n\n"

// WithVisionModel sets the model used to read images.
func WithVisionModel(model string) Option {
	return func(_ *openai.ClientConfig, c *Client) { c.vision = model }
}

func (c *Client) visionModel() string {
	if c.vision != "" {
		return c.vision
	}
	return DefaultVisionModel
}

var imageMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageDataURL reads an image file into a base64 data URL.
func ImageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime, ok := imageMIME[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DescribeFloorPlan asks the vision model for a structured layout
// description of one floor plan image.
func (c *Client) DescribeFloorPlan(ctx context.Context, image string) (string, error) {
	url, err := ImageDataURL(image)
	if err != nil {
		return "", fmt.Errorf("read floor plan: %w", err)
	}
	resp, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel(),
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: floorPlanVisionPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url}},
			},
		}},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return reply(resp)
}

// ReviewFloorPlan describes the image with the vision model, then asks
// the text model for a short 总体评价.
func (c *Client) ReviewFloorPlan(ctx context.Context, image string) (string, error) {
	desc, err := c.DescribeFloorPlan(ctx, image)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, floorPlanReviewMessage(desc), CompleteOptions{MaxTokens: 300, Temperature: 0.7})
}

// FloorPlanReview is the outcome for one image. Err is set when the
// image was missing or a model call failed.
type FloorPlanReview struct {
	Image string
	Text  string
	Err   error
}

// WriteFloorPlanAnalysis saves the reviews as 户型分析.txt records.
// Failed reviews keep their place so numbering matches the image list.
func WriteFloorPlanAnalysis(path string, reviews []FloorPlanReview) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, r := range reviews {
		text := r.Text
		if r.Err != nil {
			text = "错误：" + r.Err.Error()
		}
		fmt.Fprintf(&b, "户型图路径: %s\n分析结果:\n%s\n", r.Image, text)
		b.WriteString(floorPlanSeparator)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// FloorPlanSummary is one parsed record of 户型分析.txt.
type FloorPlanSummary struct {
	Image   string
	Summary string
}

var (
	floorPlanPathRe    = regexp.MustCompile(`户型图路径:\s*(.+)`)
	floorPlanSummaryRe = regexp.MustCompile(`(?s)###\s*总体评价\s*\n(.+)`)
)

// ParseFloorPlanAnalysis splits 户型分析.txt into records. A record
// without a path reads "未知路径"; one without a 总体评价 section gets
// NoFloorPlanSummary.
func ParseFloorPlanAnalysis(text string) []FloorPlanSummary {
	var out []FloorPlanSummary
	for _, section := range strings.Split(text, floorPlanSeparator) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		s := FloorPlanSummary{Image: "未知路径", Summary: NoFloorPlanSummary}
		if m := floorPlanPathRe.FindStringSubmatch(section); m != nil {
			s.Image = strings.TrimSpace(m[1])
		}
		if m := floorPlanSummaryRe.FindStringSubmatch(section); m != nil {
			body := m[1]
			if i := strings.Index(body, "\n==="); i >= 0 {
				body = body[:i]
			}
			if body = strings.TrimSpace(body); body != "" {
				s.Summary = body
			}
		}
		out = append(out, s)
	}
	return out
}

// ReadFloorPlanAnalysis parses the file at path.
func ReadFloorPlanAnalysis(path string) ([]FloorPlanSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFloorPlanAnalysis(string(data)), nil
}
