package sequence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextSkipsScriptsAndSplitsBlocks(t *testing.T) {
	doc := `<html><head><title>Page title</title><style>body{}</style></head>
<body><script>var x = 1;</script><h1>Heading here</h1><p>First <b>bold</b> para</p><div>Second block</div></body></html>`

	text, err := ExtractText(strings.NewReader(doc))
	require.NoError(t, err)
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "body{}")

	src := NewDocuments(&docSlice{docs: []string{text}}, nil)
	assert.Equal(t, [][]string{
		{"page", "title"},
		{"heading", "here"},
		{"first", "bold", "para"},
		{"second", "block"},
	}, drain(t, src))
}

func TestHTMLSourceWalksDirectoriesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte("<p>beta words</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.htm"), []byte("<p>alpha words</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	src, err := OpenHTML(nil, dir)
	require.NoError(t, err)
	assert.Len(t, src.docs.(*HTMLReader).Files(), 2)

	assert.Equal(t, [][]string{{"beta", "words"}, {"alpha", "words"}}, drain(t, src))
}

func TestHTMLSourceMissingPath(t *testing.T) {
	_, err := OpenHTML(nil, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
