// Package enrich produces analyst-facing summaries for staged fraud alerts.
// Summaries are advisory text attached to an alert document after the batch
// is persisted; a summarizer failure never affects the alert itself.
package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/dvnair/fraudsight/internal/domain"
)

// Generator abstracts text generation so the summarizer can be tested
// without a live model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator generates text via the GenAI API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator using the given model name.
// Credentials are picked up from the environment.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate implements the Generator interface.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}

// Summarizer turns a fraud alert into a short plain-text summary.
type Summarizer struct {
	gen Generator
}

// NewSummarizer wraps a Generator.
func NewSummarizer(gen Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// SummarizeAlert asks the model for a two-sentence summary of the alert.
func (s *Summarizer) SummarizeAlert(ctx context.Context, alert domain.Alert) (string, error) {
	prompt := buildAlertPrompt(alert)

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("SummarizeAlert: %w", err)
	}

	summary := cleanSummary(raw)
	if summary == "" {
		return "", fmt.Errorf("SummarizeAlert: model returned no usable text")
	}
	return summary, nil
}

func buildAlertPrompt(alert domain.Alert) string {
	var b strings.Builder
	b.WriteString("You are a fraud analyst assistant.\n\n")
	b.WriteString("Summarize the following fraud alert in at most two sentences of plain text.\n")
	b.WriteString("Do NOT use Markdown, bullet points or code fences.\n")
	b.WriteString("Mention the alert type, the account or customer involved, and the key figures.\n\n")
	b.WriteString("Alert type: " + string(alert.Type()) + "\n")

	doc := alert.Doc()
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, doc[k])
	}

	return b.String()
}

// cleanSummary strips Markdown fences and surrounding noise if the model
// ignored the plain-text instruction.
func cleanSummary(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.Join(strings.Fields(s), " ")
}
