package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

const (
	defaultModel   = openai.GPT4o
	defaultTimeout = 60 * time.Second
	questionsTool  = "submit_questions"
)

// Config holds connection details for the generation service.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client generates quiz questions and extracts text from images through a
// chat-completion model. It is the single external generation collaborator.
type Client struct {
	api    *openai.Client
	model  string
	logger zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:    openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger.With().Str("component", "generator").Logger(),
	}
}

// GenerateQuestions asks the model for the configured mix of questions and
// returns the raw questions JSON array for the normalizer. The payload is
// deliberately left weakly typed; the normalizer owns classification.
func (c *Client) GenerateQuestions(ctx context.Context, sourceText string, cfg quiz.GenerationConfig) ([]byte, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert quiz generator. You turn study material into interactive quizzes and always answer through the submit_questions tool.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(sourceText, cfg),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        questionsTool,
					Description: "Submit the generated quiz questions",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"questions": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"type": map[string]interface{}{
											"type":        "string",
											"description": "Must be exactly 'MCQ' or 'TRUE_FALSE'",
										},
										"question": map[string]interface{}{
											"type": "string",
										},
										"options": map[string]interface{}{
											"type":        "array",
											"items":       map[string]interface{}{"type": "string"},
											"description": "Exactly 4 choices for MCQ. Null for TRUE_FALSE.",
										},
										"correctIndex": map[string]interface{}{
											"type":        "integer",
											"description": "Index (0-3) of the correct option. Required for MCQ.",
										},
										"correctAnswer": map[string]interface{}{
											"type":        "boolean",
											"description": "The correct boolean value. Required for TRUE_FALSE.",
										},
										"explanation": map[string]interface{}{
											"type": "string",
										},
										"difficulty": map[string]interface{}{
											"type": "string",
										},
									},
									"required": []string{"type", "question", "explanation"},
								},
							},
						},
						"required": []string{"questions"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: questionsTool},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("generation returned no choices")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("generation returned no tool call")
	}
	call := choice.Message.ToolCalls[0]
	if call.Function.Name != questionsTool {
		return nil, fmt.Errorf("unexpected tool call %q", call.Function.Name)
	}

	var args struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}

	c.logger.Debug().Int("bytes", len(args.Questions)).Msg("received generated questions payload")
	return args.Questions, nil
}

// ExtractTextFromImage runs OCR on a base64 data URL through a vision message.
func (c *Client) ExtractTextFromImage(ctx context.Context, imageDataURL string, lang quiz.Language) (string, error) {
	instruction := "Extract all text from this image exactly. If it is an educational document, maintain its structure."
	if lang == quiz.LanguageArabic {
		instruction += " The text is primarily Arabic."
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: instruction},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("image ocr request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("image ocr returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(sourceText string, cfg quiz.GenerationConfig) string {
	difficultyNote := fmt.Sprintf("Difficulty level: %s.", cfg.Difficulty)
	if cfg.Difficulty == quiz.DifficultyHard {
		difficultyNote = "FOR HARD DIFFICULTY: generate extremely challenging distractors. Options must be conceptually very close and subtle to differentiate."
	}

	language := "English"
	if cfg.Language == quiz.LanguageArabic {
		language = "Arabic"
	}

	var b strings.Builder
	b.WriteString("Analyze the following text and generate an interactive quiz.\n")
	b.WriteString("TEXT: \"\"\"" + sourceText + "\"\"\"\n\n")
	b.WriteString("STRICT REQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. Generate exactly %d Multiple Choice Questions (type \"MCQ\").\n", cfg.MultipleChoiceCount)
	b.WriteString("   - Each MCQ must have exactly 4 \"options\" and a \"correctIndex\" (0-3). Leave \"correctAnswer\" null.\n")
	fmt.Fprintf(&b, "2. Generate exactly %d True/False questions (type \"TRUE_FALSE\").\n", cfg.TrueFalseCount)
	b.WriteString("   - Each must have a boolean \"correctAnswer\". Leave \"options\" and \"correctIndex\" null.\n")
	fmt.Fprintf(&b, "3. %s\n", difficultyNote)
	fmt.Fprintf(&b, "4. Language: %s.\n", language)
	b.WriteString("5. Every question and explanation must be based on the provided text.\n")
	return b.String()
}
