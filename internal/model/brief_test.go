package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectBrief(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *ProjectBrief
		wantErr bool
	}{
		{
			name: "bare json",
			raw:  `{"title":"Recipe Hub","description":"A community recipe site","keyFeatures":"1. search\n2. upload"}`,
			want: &ProjectBrief{Title: "Recipe Hub", Description: "A community recipe site", KeyFeatures: "1. search\n2. upload"},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"title\":\"T\",\"description\":\"D\",\"keyFeatures\":\"F\"}\n```",
			want: &ProjectBrief{Title: "T", Description: "D", KeyFeatures: "F"},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"title\":\"T\",\"description\":\"D\",\"keyFeatures\":\"F\"}\n```",
			want: &ProjectBrief{Title: "T", Description: "D", KeyFeatures: "F"},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  {\"title\":\"T\",\"description\":\"D\",\"keyFeatures\":\"F\"}  \n",
			want: &ProjectBrief{Title: "T", Description: "D", KeyFeatures: "F"},
		},
		{
			name:    "prose instead of json",
			raw:     "Sure! Here is your project brief.",
			wantErr: true,
		},
		{
			name:    "missing field",
			raw:     `{"title":"T","description":"D"}`,
			wantErr: true,
		},
		{
			name:    "empty field",
			raw:     `{"title":"T","description":"","keyFeatures":"F"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProjectBrief(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProjectEstimate(t *testing.T) {
	got, err := ParseProjectEstimate("```json\n{\"estimatedComplexity\":\"high\",\"preliminaryQuote\":\"$40,000\",\"estimatedTimeline\":\"12 weeks\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "high", got.EstimatedComplexity)
	assert.Equal(t, "$40,000", got.PreliminaryQuote)
	assert.Equal(t, "12 weeks", got.EstimatedTimeline)

	_, err = ParseProjectEstimate(`{"estimatedComplexity":"high"}`)
	assert.Error(t, err)
}
