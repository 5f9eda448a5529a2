package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		labels   []string
		yes      bool
		analysis string
	}{
		{"bare yes", "Yes", nil, true, ""},
		{"bare no", "No.", nil, false, ""},
		{"empty", "", nil, false, ""},
		{"ambiguous both", "Yes and no", nil, false, ""},
		{"neither", "Maybe", nil, false, ""},
		{"yesterday is not yes", "Yesterday we talked", nil, false, ""},
		{
			"labelled answer wins",
			"Analysis: there is no mention of smoking at first, but then yes.\nAnswer: Yes",
			[]string{"Answer"}, true, "there is no mention of smoking at first, but then yes.",
		},
		{
			"labelled no",
			"Analysis: the counselor asks about work, yes really.\nAnswer: No",
			[]string{"Answer"}, false, "the counselor asks about work, yes really.",
		},
		{
			"alternate label case-insensitive",
			"analysis: client says goodbye\nEND OR NOT: yes",
			[]string{"End or Not"}, true, "client says goodbye",
		},
		{
			"analysis ignored without label",
			"Analysis: no, not quite\nYes",
			nil, true, "no, not quite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.text, tt.labels...)
			assert.Equal(t, tt.yes, v.Yes)
			assert.Equal(t, tt.analysis, v.Analysis)
		})
	}
}
