package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodylabs/platform/internal/llm"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/pkg/logger"
)

// stubModel scripts the provider: fragments drive CompleteStream,
// completion drives Complete. The last request is captured for
// assertions on prompt construction.
type stubModel struct {
	fragments  []string
	completion string
	err        error

	lastReq *llm.CompletionRequest
}

func (s *stubModel) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.completion, Model: "stub-model"}, nil
}

func (s *stubModel) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	var full strings.Builder
	for i, frag := range s.fragments {
		if err := callback(frag, i); err != nil {
			return nil, err
		}
		full.WriteString(frag)
	}
	return &llm.CompletionResponse{Content: full.String(), Model: "stub-model"}, nil
}

func (s *stubModel) Name() string { return "stub" }

func TestConverseStreamsFragmentsInOrder(t *testing.T) {
	stub := &stubModel{fragments: []string{"He", "llo", "!"}}
	a := NewAssistant(stub, "", logger.NewNop())

	var got []string
	var indexes []int
	reply, err := a.Converse(context.Background(), nil, "hi", ModeChat, func(fragment string, index int) error {
		got = append(got, fragment)
		indexes = append(indexes, index)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"He", "llo", "!"}, got)
	assert.Equal(t, []int{0, 1, 2}, indexes)
	assert.Equal(t, "Hello!", reply, "concatenated fragments must equal the full reply")
}

func TestConverseChatForwardsHistoryVerbatim(t *testing.T) {
	stub := &stubModel{fragments: []string{"ok"}}
	a := NewAssistant(stub, "test-model", logger.NewNop())

	history := []llm.ChatMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	_, err := a.Converse(context.Background(), history, "second question", ModeChat, func(string, int) error { return nil })
	require.NoError(t, err)

	require.NotNil(t, stub.lastReq)
	assert.Equal(t, "test-model", stub.lastReq.Model)
	require.Len(t, stub.lastReq.Messages, 3)
	assert.Equal(t, history[0], stub.lastReq.Messages[0])
	assert.Equal(t, history[1], stub.lastReq.Messages[1])
	assert.Equal(t, "second question", stub.lastReq.Messages[2].Content)
	assert.Zero(t, stub.lastReq.Temperature, "chat mode uses the provider default")
}

func TestConverseWriterIgnoresHistory(t *testing.T) {
	stub := &stubModel{fragments: []string{`{"title":"T","description":"D","keyFeatures":"F"}`}}
	a := NewAssistant(stub, "", logger.NewNop())

	history := []llm.ChatMessage{{Role: "user", Content: "should not appear"}}
	reply, err := a.Converse(context.Background(), history, "a recipe sharing app", ModeWriter, func(string, int) error { return nil })
	require.NoError(t, err)

	require.NotNil(t, stub.lastReq)
	require.Len(t, stub.lastReq.Messages, 1, "writer mode drops history")
	assert.Contains(t, stub.lastReq.Messages[0].Content, "a recipe sharing app")
	assert.NotContains(t, stub.lastReq.Messages[0].Content, "should not appear")
	assert.InDelta(t, 0.5, stub.lastReq.Temperature, 1e-9)

	// The writer reply parses as a structured brief.
	brief, err := model.ParseProjectBrief(reply)
	require.NoError(t, err)
	assert.Equal(t, "T", brief.Title)
	assert.Equal(t, "D", brief.Description)
	assert.Equal(t, "F", brief.KeyFeatures)
}

func TestConverseUpstreamFailure(t *testing.T) {
	stub := &stubModel{err: errors.New("upstream 529")}
	a := NewAssistant(stub, "", logger.NewNop())

	_, err := a.Converse(context.Background(), nil, "hi", ModeChat, func(string, int) error { return nil })
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateBrief(t *testing.T) {
	stub := &stubModel{completion: "```json\n{\"title\":\"Recipe Hub\",\"description\":\"A community site\",\"keyFeatures\":\"1. search\\n2. upload\"}\n```"}
	a := NewAssistant(stub, "", logger.NewNop())

	brief, err := a.GenerateBrief(context.Background(), "recipe sharing")
	require.NoError(t, err)

	assert.Equal(t, "Recipe Hub", brief.Title)
	assert.Equal(t, "A community site", brief.Description)
	assert.NotEmpty(t, brief.KeyFeatures)
	assert.InDelta(t, 0.5, stub.lastReq.Temperature, 1e-9)
}

func TestGenerateBriefUnparseableOutput(t *testing.T) {
	stub := &stubModel{completion: "Sure! Here is your brief: ..."}
	a := NewAssistant(stub, "", logger.NewNop())

	_, err := a.GenerateBrief(context.Background(), "recipe sharing")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestEstimate(t *testing.T) {
	stub := &stubModel{completion: `{"estimatedComplexity":"medium","preliminaryQuote":"$12,000","estimatedTimeline":"6 weeks"}`}
	a := NewAssistant(stub, "", logger.NewNop())

	est, err := a.Estimate(context.Background(), EstimateInput{
		ProjectDescription: "storefront",
		DesiredFeatures:    "catalog, cart",
		ComplexityLevel:    "medium",
	})
	require.NoError(t, err)

	assert.Equal(t, "medium", est.EstimatedComplexity)
	assert.Equal(t, "$12,000", est.PreliminaryQuote)
	assert.Equal(t, "6 weeks", est.EstimatedTimeline)

	require.NotNil(t, stub.lastReq)
	assert.Contains(t, stub.lastReq.Messages[0].Content, "storefront")
	assert.Contains(t, stub.lastReq.Messages[0].Content, "catalog, cart")
}

func TestEstimateRejectsUnknownLevel(t *testing.T) {
	stub := &stubModel{completion: "{}"}
	a := NewAssistant(stub, "", logger.NewNop())

	_, err := a.Estimate(context.Background(), EstimateInput{
		ProjectDescription: "storefront",
		DesiredFeatures:    "catalog",
		ComplexityLevel:    "extreme",
	})
	assert.Error(t, err)
	assert.Nil(t, stub.lastReq, "invalid input must not reach the provider")
}
