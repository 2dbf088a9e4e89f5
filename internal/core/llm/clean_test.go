package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tenderbharat/docvector/internal/core/llm"
)

func TestCleanLLMOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "Tender notice no. 42",
			want: "Tender notice no. 42",
		},
		{
			name: "markdown fence stripped",
			in:   "```markdown\nSection 1\nSection 2\n```",
			want: "Section 1\nSection 2",
		},
		{
			name: "bare fence stripped",
			in:   "```\nhello\n```",
			want: "hello",
		},
		{
			name: "display math removed",
			in:   "before $$x = \\frac{1}{2}$$ after",
			want: "before  after",
		},
		{
			name: "inline math removed",
			in:   "rate is $r$ percent",
			want: "rate is  percent",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  padded \n",
			want: "padded",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.CleanLLMOutput(tt.in))
		})
	}
}
