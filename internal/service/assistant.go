package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/llm"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

// Mode selects the assistant's behavior for one Converse call.
type Mode string

const (
	// ModeChat forwards the conversation verbatim with no injected
	// instructions beyond the model's defaults.
	ModeChat Mode = "chat"
	// ModeWriter ignores history and asks the model for a structured
	// project brief as a single JSON object.
	ModeWriter Mode = "writer"
)

// writerTemperature is pinned below the chat default so brief output
// stays consistent between runs.
const writerTemperature = 0.5

const writerPrompt = `You are an expert project manager and business analyst. A user will provide a prompt with their idea for a project. Your task is to expand on this idea and generate a structured project brief.

Based on the user's prompt, create:
1.  A clear and concise project **title**.
2.  A detailed project **description** that covers the project's purpose, goals, and intended audience.
3.  A list of **key features** that would be essential for the project. Format this as a bulleted or numbered list.

User's Idea: %s

Provide your response as a single, raw JSON object string. The JSON object must conform to the following structure: { "title": "...", "description": "...", "keyFeatures": "..." }. Do not wrap the JSON in markdown backticks or any other formatting.`

const estimatorPrompt = `You are an expert project manager specializing in software development projects.

You will use the project description, desired features, and complexity level to estimate the project's overall complexity, provide a preliminary quote, and estimate a timeline for completion.

Project Description: %s
Desired Features: %s
Complexity Level: %s

Consider all these factors when generating the complexity estimation, quote, and timeline. Respond with a single, raw JSON object of the form { "estimatedComplexity": "...", "preliminaryQuote": "...", "estimatedTimeline": "..." } and nothing else.`

// FragmentHandler receives each text fragment of a streamed reply in
// generation order.
type FragmentHandler func(fragment string, index int) error

// EstimateInput is the estimator flow's input.
type EstimateInput struct {
	ProjectDescription string `json:"project_description"`
	DesiredFeatures    string `json:"desired_features"`
	ComplexityLevel    string `json:"complexity_level"`
}

// Assistant adapts conversations onto the hosted generative-model
// streaming endpoint. Calls are independent; there is no shared
// mutable state, so concurrent Converse calls are safe but unordered
// relative to each other.
type Assistant struct {
	llm       llm.Client
	modelName string
	logger    *logger.Logger
}

// NewAssistant creates the AI proxy. modelName may be empty to use the
// provider default.
func NewAssistant(client llm.Client, modelName string, log *logger.Logger) *Assistant {
	return &Assistant{
		llm:       client,
		modelName: modelName,
		logger:    log,
	}
}

// Converse streams a reply to message. In chat mode history is
// forwarded verbatim with message as the newest turn; in writer mode
// history is ignored and message is wrapped in the brief template.
// Fragments are delivered in order through onFragment and are never
// retracted: on failure the already-emitted prefix stands and the
// caller decides whether to keep it. The returned string is the full
// concatenated reply.
func (a *Assistant) Converse(ctx context.Context, history []llm.ChatMessage, message string, mode Mode, onFragment FragmentHandler) (string, error) {
	req := &llm.CompletionRequest{Model: a.modelName}

	switch mode {
	case ModeWriter:
		req.Messages = []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(writerPrompt, message)},
		}
		req.Temperature = writerTemperature
	default:
		req.Messages = append(append([]llm.ChatMessage{}, history...), llm.ChatMessage{
			Role:    "user",
			Content: message,
		})
	}

	start := time.Now()
	resp, err := a.llm.CompleteStream(ctx, req, llm.StreamCallback(onFragment))
	if err != nil {
		a.logger.Error("model stream failed",
			zap.String("provider", a.llm.Name()),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		metrics.RecordLLMStream(a.modelName, "error", time.Since(start).Seconds(), 0, 0)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp.Content, nil
}

// GenerateBrief runs the writer flow non-streaming and parses the
// structured result.
func (a *Assistant) GenerateBrief(ctx context.Context, idea string) (*model.ProjectBrief, error) {
	resp, err := a.llm.Complete(ctx, &llm.CompletionRequest{
		Model: a.modelName,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(writerPrompt, idea)},
		},
		Temperature: writerTemperature,
	})
	if err != nil {
		a.logger.Error("brief generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	brief, err := model.ParseProjectBrief(resp.Content)
	if err != nil {
		a.logger.Error("brief output unparseable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return brief, nil
}

// Estimate runs the estimator flow and parses the structured result.
func (a *Assistant) Estimate(ctx context.Context, in EstimateInput) (*model.ProjectEstimate, error) {
	level := in.ComplexityLevel
	switch level {
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("invalid complexity level %q", level)
	}

	resp, err := a.llm.Complete(ctx, &llm.CompletionRequest{
		Model: a.modelName,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(estimatorPrompt, in.ProjectDescription, in.DesiredFeatures, level)},
		},
		Temperature: writerTemperature,
	})
	if err != nil {
		a.logger.Error("estimate generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	est, err := model.ParseProjectEstimate(resp.Content)
	if err != nil {
		a.logger.Error("estimate output unparseable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return est, nil
}
