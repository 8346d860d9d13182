package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentParagraphs(t *testing.T) {
	tests := []struct {
		name       string
		paragraphs []string
		want       []PageContent
	}{
		{
			name:       "no markers yields single page",
			paragraphs: []string{"A", "B", "C"},
			want:       []PageContent{{Number: 1, Content: "A\nB\nC"}},
		},
		{
			name:       "blank paragraphs are dropped",
			paragraphs: []string{"", "  A  ", "", "B"},
			want:       []PageContent{{Number: 1, Content: "A\nB"}},
		},
		{
			name:       "explicit page number resets numbering",
			paragraphs: []string{"intro", "📖 Page 5", "five", "📖 Page", "six"},
			want: []PageContent{
				{Number: 1, Content: "intro"},
				{Number: 5, Content: "five"},
				{Number: 6, Content: "six"},
			},
		},
		{
			name:       "leading marker does not emit empty page",
			paragraphs: []string{"📖 Page 1", "first", "\f", "second"},
			want: []PageContent{
				{Number: 1, Content: "first"},
				{Number: 2, Content: "second"},
			},
		},
		{
			name:       "page keyword is case insensitive",
			paragraphs: []string{"\f PAGE 3", "three"},
			want:       []PageContent{{Number: 3, Content: "three"}},
		},
		{
			name:       "backwards explicit number keeps numbers unique",
			paragraphs: []string{"📖 Page 4", "four", "📖 Page 2", "next"},
			want: []PageContent{
				{Number: 4, Content: "four"},
				{Number: 5, Content: "next"},
			},
		},
		{
			name:       "lower explicit number after higher one continues upwards",
			paragraphs: []string{"cover", "📖 Page 7", "seven", "📖 Page 5", "five"},
			want: []PageContent{
				{Number: 1, Content: "cover"},
				{Number: 7, Content: "seven"},
				{Number: 8, Content: "five"},
			},
		},
		{
			name:       "only markers yields nothing",
			paragraphs: []string{"📖 Page 1", "  ", "\f"},
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentParagraphs(tt.paragraphs, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppendTables(t *testing.T) {
	pages := []PageContent{{Number: 1, Content: "one"}, {Number: 2, Content: "two"}}
	tables := [][][]string{
		{{"Name", " Age "}, {"Asha", "", "10"}, {"", ""}},
	}

	got := AppendTables(pages, tables)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Content)
	assert.Equal(t, "two\n\nTable Content:\nName | Age\nAsha | 10", got[1].Content)
}

func TestAppendTablesWithoutPages(t *testing.T) {
	got := AppendTables(nil, [][][]string{{{"x", "y"}}})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "Table Content:\nx | y", got[0].Content)

	assert.Empty(t, AppendTables(nil, [][][]string{{{" ", ""}}}))
}

func TestSegmentPlainText(t *testing.T) {
	para := strings.Repeat("a", 600)

	t.Run("small text is one page", func(t *testing.T) {
		got := SegmentPlainText("first\n\nsecond", 1000)
		assert.Equal(t, []PageContent{{Number: 1, Content: "first\n\nsecond"}}, got)
	})

	t.Run("budget overflow flushes", func(t *testing.T) {
		got := SegmentPlainText(para+"\n\n"+para+"\n\n"+para, 1000)
		require.Len(t, got, 3)
		for i, p := range got {
			assert.Equal(t, i+1, p.Number)
			assert.Equal(t, para, p.Content)
		}
	})

	t.Run("oversized single chunk", func(t *testing.T) {
		big := strings.Repeat("b", 1500)
		got := SegmentPlainText(big+"\n\nsmall", 1000)
		require.Len(t, got, 2)
		assert.Equal(t, big, got[0].Content)
		assert.Equal(t, "small", got[1].Content)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SegmentPlainText("\n\n  \n\n", 1000))
	})

	t.Run("windows line endings", func(t *testing.T) {
		got := SegmentPlainText("a\r\n\r\nb", 1000)
		assert.Equal(t, []PageContent{{Number: 1, Content: "a\n\nb"}}, got)
	})
}
