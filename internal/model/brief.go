package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// ProjectBrief is the structured output of the writer flow: a project
// idea expanded into a title, a description and a key-feature list.
type ProjectBrief struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	KeyFeatures string `json:"keyFeatures"`
}

// ProjectEstimate is the structured output of the estimator flow.
type ProjectEstimate struct {
	EstimatedComplexity string `json:"estimatedComplexity"`
	PreliminaryQuote    string `json:"preliminaryQuote"`
	EstimatedTimeline   string `json:"estimatedTimeline"`
}

// ParseProjectBrief decodes a model's raw writer output into a brief.
// The model is instructed to emit bare JSON, but fenced output still
// shows up often enough that markdown fences are stripped first. All
// three fields must be present and non-empty.
func ParseProjectBrief(raw string) (*ProjectBrief, error) {
	var brief ProjectBrief
	if err := json.Unmarshal([]byte(stripFences(raw)), &brief); err != nil {
		return nil, err
	}
	if brief.Title == "" || brief.Description == "" || brief.KeyFeatures == "" {
		return nil, errors.New("brief is missing required fields")
	}
	return &brief, nil
}

// ParseProjectEstimate decodes a model's raw estimator output.
func ParseProjectEstimate(raw string) (*ProjectEstimate, error) {
	var est ProjectEstimate
	if err := json.Unmarshal([]byte(stripFences(raw)), &est); err != nil {
		return nil, err
	}
	if est.EstimatedComplexity == "" || est.PreliminaryQuote == "" || est.EstimatedTimeline == "" {
		return nil, errors.New("estimate is missing required fields")
	}
	return &est, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
