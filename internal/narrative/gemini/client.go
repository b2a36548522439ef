// Package gemini implements the narrative generator on Google's
// Gemini models.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/narrative"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

// Config selects the models used for each kind of generation. LogFunc,
// when set, receives every prompt and raw reply for the debug console.
type Config struct {
	APIKey       string
	StoryModel   string
	SummaryModel string
	ImageModel   string
	LogFunc      func(kind, content string)
}

// Client talks to the Gemini API. It is safe for concurrent use.
type Client struct {
	client  *genai.Client
	story   *genai.GenerativeModel
	outline *genai.GenerativeModel
	summary *genai.GenerativeModel
	image   *genai.GenerativeModel
	logf    func(kind, content string)
}

var _ narrative.Generator = (*Client)(nil)

// New builds a Gemini-backed generator.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeMissingAPIKey, "gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNarrativeUnavailable, "create gemini client", err)
	}

	story := client.GenerativeModel(cfg.StoryModel)
	story.ResponseMIMEType = "application/json"
	story.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	outline := client.GenerativeModel(cfg.StoryModel)
	outline.ResponseMIMEType = "application/json"

	logf := cfg.LogFunc
	if logf == nil {
		logf = func(string, string) {}
	}

	return &Client{
		client:  client,
		story:   story,
		outline: outline,
		summary: client.GenerativeModel(cfg.SummaryModel),
		image:   client.GenerativeModel(cfg.ImageModel),
		logf:    logf,
	}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Outline implements narrative.Generator.
func (c *Client) Outline(ctx context.Context, req narrative.OutlineRequest) (*domain.MainStoryArc, error) {
	prompt := outlinePrompt(req)
	c.logf("request", prompt)

	text, err := c.generateText(ctx, c.outline, prompt)
	if err != nil {
		c.logf("error", err.Error())
		return nil, err
	}
	c.logf("response", text)

	var arc domain.MainStoryArc
	if err := json.Unmarshal([]byte(stripFences(text)), &arc); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNarrativeMalformed, "decode campaign outline", err)
	}
	normalizeArc(&arc)
	return &arc, nil
}

// normalizeArc enforces the invariants the model sometimes drops: act
// ids are sequential and exactly one act starts active.
func normalizeArc(arc *domain.MainStoryArc) {
	activeSeen := false
	for i := range arc.MainQuests {
		q := &arc.MainQuests[i]
		if q.ID == "" {
			q.ID = fmt.Sprintf("%d", i+1)
		}
		switch {
		case q.Status == domain.MainQuestActive && !activeSeen:
			activeSeen = true
		case q.Status == domain.MainQuestCompleted:
		default:
			q.Status = domain.MainQuestPending
		}
	}
	if !activeSeen && len(arc.MainQuests) > 0 {
		arc.MainQuests[0].Status = domain.MainQuestActive
	}
}

// Step implements narrative.Generator. A reply that cannot be decoded
// is replaced by a harmless in-fiction fallback so a flaky model turn
// never wedges the game.
func (c *Client) Step(ctx context.Context, req narrative.StepRequest) (*narrative.StepResponse, error) {
	prompt := stepPrompt(req)
	c.logf("request", prompt)

	text, err := c.generateText(ctx, c.story, prompt)
	if err != nil {
		c.logf("error", err.Error())
		return nil, err
	}
	c.logf("response", text)

	var resp narrative.StepResponse
	if err := json.Unmarshal([]byte(stripFences(text)), &resp); err != nil {
		c.logf("error", fmt.Sprintf("json parse error: %v\nraw text: %s", err, text))
		resp = narrative.StepResponse{
			Narrative:  "The world shifts and blurs... (the story lost its thread for a moment).",
			Choices:    []domain.Choice{{Text: "Try to focus"}},
			GameStatus: domain.StatusOngoing,
		}
	}
	resp.Normalize()
	return &resp, nil
}

// Summary implements narrative.Generator.
func (c *Client) Summary(ctx context.Context, logText string) (string, error) {
	prompt := summaryPrompt(logText)
	c.logf("request", "[SUMMARY GENERATION]\n"+prompt)

	text, err := c.generateText(ctx, c.summary, prompt)
	if err != nil {
		c.logf("error", "[SUMMARY ERROR]\n"+err.Error())
		return "", err
	}
	c.logf("response", "[SUMMARY RESULT]\n"+text)
	return text, nil
}

// Storyboard implements narrative.Generator.
func (c *Client) Storyboard(ctx context.Context, summary string) (string, error) {
	prompt := storyboardPrompt(summary)
	c.logf("request", "[IMAGE GENERATION]\n"+prompt)

	resp, err := c.image.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logf("error", "[IMAGE ERROR]\n"+err.Error())
		return "", apperrors.Wrap(apperrors.CodeNarrativeUnavailable, "generate storyboard", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				c.logf("response", "[IMAGE GENERATED]\n(base64 image data received)")
				return fmt.Sprintf("data:%s;base64,%s", blob.MIMEType,
					base64.StdEncoding.EncodeToString(blob.Data)), nil
			}
		}
	}
	c.logf("error", "[IMAGE ERROR]\nno inline image data in response")
	return "", nil
}

func (c *Client) generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNarrativeUnavailable, "generate content", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.New(apperrors.CodeNarrativeUnavailable, "model returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", apperrors.New(apperrors.CodeNarrativeUnavailable, "model returned no text")
	}
	return b.String(), nil
}

// stripFences removes the markdown code fence the model sometimes
// wraps JSON replies in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
