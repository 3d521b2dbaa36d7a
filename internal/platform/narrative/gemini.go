package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/pilladdict/checkup/internal/domain/recommend"
)

const defaultModel = "gemini-2.5-flash-lite"

// GeminiNarrator turns a finished analysis result into a personalized
// health narrative. The engine's output never depends on it; callers treat
// failures as a missing narrative, not a failed analysis.
type GeminiNarrator struct {
	client *genai.Client
	model  string
	info   map[string]IngredientInfo
}

// NewGeminiNarrator dials the Gemini API. model may be empty to use the
// default.
func NewGeminiNarrator(ctx context.Context, apiKey, model string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	info, err := loadIngredientInfo()
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiNarrator{client: client, model: model, info: info}, nil
}

func (g *GeminiNarrator) Generate(ctx context.Context, userName string, res *recommend.Result) (string, error) {
	prompt, err := buildPrompt(userName, res, g.info)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// buildPrompt assembles the consultation prompt. The analysis data carries a
// per-ingredient reference sheet (function, caution) so the model grounds
// its explanations on it.
func buildPrompt(userName string, res *recommend.Result, info map[string]IngredientInfo) (string, error) {
	payload, err := json.MarshalIndent(struct {
		ExamValues       interface{}      `json:"exam_values"`
		AbnormalFindings interface{}      `json:"abnormal_findings"`
		Ingredients      interface{}      `json:"recommended_ingredients"`
		IngredientInfo   []IngredientInfo `json:"ingredient_info"`
		Products         interface{}      `json:"candidate_products"`
	}{
		res.ExamValues,
		res.AbnormalFindings,
		res.Ingredients,
		infoFor(info, res.Ingredients),
		res.MatchedProducts,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis result: %w", err)
	}

	name := userName
	if name == "" {
		name = "the user"
	}
	return fmt.Sprintf(`You are a professional health consultant. Using the
health-checkup analysis below, write personalized advice for %s.

For each recommended ingredient explain why it helps and its intake
cautions, using the function and caution texts in ingredient_info. Suggest
lifestyle improvements for the abnormal findings. Keep a friendly, expert
tone. Do not invent values that are not in the data.

Analysis data:
%s`, name, payload), nil
}
