package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Token budgets for prompt input.
const (
	surroundingInputTokens = 24000
	kaipanInputTokens      = 8000
	maxToolRounds          = 8
)

const webSearchTool = "$web_search"

// SurroundingsHeading introduces the summary body in the saved file.
const SurroundingsHeading = "周边配套信息总结："

// ErrToolLoop is returned when the model keeps asking for tools.
var ErrToolLoop = errors.New("llm: too many tool-call rounds")

// SummarizeSurroundings condenses the surroundings report into the four
// 周边配套 points.
func (c *Client) SummarizeSurroundings(ctx context.Context, report string) (string, error) {
	report = TruncateTokens(report, surroundingInputTokens)
	return c.Complete(ctx, surroundingMessage(report), CompleteOptions{MaxTokens: 2000, Temperature: 0.7})
}

// KaipanSentence asks for a one-sentence summary of the opening details.
func (c *Client) KaipanSentence(ctx context.Context, text string) (string, error) {
	text = TruncateTokens(text, kaipanInputTokens)
	return c.Complete(ctx, kaipanMessage(text), CompleteOptions{MaxTokens: 150, Temperature: 0.1})
}

// CustomerAnalysis runs the buyer-profile prompt with the builtin web
// search tool. Tool calls are answered by echoing their arguments.
func (c *Client) CustomerAnalysis(ctx context.Context, project, address string) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: customerSystem},
		{Role: openai.ChatMessageRoleUser, Content: customerMessage(project, address)},
	}
	tools := []openai.Tool{{
		Type:     openai.ToolType("builtin_function"),
		Function: &openai.FunctionDefinition{Name: webSearchTool},
	}}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.chat(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    msgs,
			Temperature: 0.6,
			MaxTokens:   32768,
			Tools:       tools,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyReply
		}
		choice := resp.Choices[0]
		if choice.FinishReason != openai.FinishReasonToolCalls {
			return reply(resp)
		}

		msgs = append(msgs, choice.Message)
		for _, call := range choice.Message.ToolCalls {
			content := call.Function.Arguments
			if call.Function.Name != webSearchTool {
				content = fmt.Sprintf("Error: unable to find tool by name '%s'", call.Function.Name)
			}
			c.log.Info("llm tool call", "tool", call.Function.Name, "round", round)
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    content,
			})
		}
	}
	return "", ErrToolLoop
}

// WriteSurroundingSummary saves a summary with its project and time header.
func WriteSurroundingSummary(path, project, summary string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "项目名称：%s\n", project)
	fmt.Fprintf(&b, "生成时间：%s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(SurroundingsHeading + "\n")
	b.WriteString(summary)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ReadSurroundingSummary returns the summary body of a file written by
// WriteSurroundingSummary. Files without the heading are returned whole.
func ReadSurroundingSummary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if i := strings.Index(text, SurroundingsHeading); i >= 0 {
		text = text[i+len(SurroundingsHeading):]
	}
	return strings.TrimSpace(text), nil
}
