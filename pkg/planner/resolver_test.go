package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionKeywords(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "plural question includes singular form",
			question: "how many patients visited",
			want:     []string{"patients", "patient", "visited", "visiteds"},
		},
		{
			name:     "stopwords and short tokens removed",
			question: "show all the data for id 12",
			want:     []string{"data", "datum"},
		},
		{
			name:     "punctuation splits tokens",
			question: "doctors,specialty?",
			want:     []string{"doctors", "doctor", "specialty", "specialties"},
		},
		{
			name:     "empty question",
			question: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, questionKeywords(tt.question))
		})
	}
}
