package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRichText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "html image",
			input: `before <img width="600" src="https://example.com/shot.png" alt="x"> after`,
			want:  "before !https://example.com/shot.png! after",
		},
		{
			name:  "markdown image",
			input: "see ![screenshot](https://example.com/shot.png) here",
			want:  "see !https://example.com/shot.png! here",
		},
		{
			name:  "markdown image without alt text",
			input: "![](https://example.com/shot.png)",
			want:  "!https://example.com/shot.png!",
		},
		{
			name:  "both syntaxes in one body",
			input: `<img src="https://a/1.png"> and ![two](https://a/2.png)`,
			want:  "!https://a/1.png! and !https://a/2.png!",
		},
		{
			name:  "regular link untouched",
			input: "[docs](https://example.com/page)",
			want:  "[docs](https://example.com/page)",
		},
		{
			name:  "no images",
			input: "plain text body",
			want:  "plain text body",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRichText(tt.input))
		})
	}
}

func TestNormalizeRichTextIdempotent(t *testing.T) {
	input := `intro ![alt](https://example.com/a.png) <img src="https://example.com/b.png">`

	once := NormalizeRichText(input)
	twice := NormalizeRichText(once)
	assert.Equal(t, once, twice)
}
