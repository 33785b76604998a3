package linecount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountLines(t *testing.T) {
	assert.Equal(t, 1, CountLines(""))
	assert.Equal(t, 1, CountLines("single line"))
	assert.Equal(t, 2, CountLines("trailing newline\n"))
	assert.Equal(t, 3, CountLines("a\nb\nc"))
	assert.Equal(t, 3, CountLines("a\r\nb\r\nc"))
}

func TestDecode_ReplacesInvalidBytes(t *testing.T) {
	raw := []byte{'o', 'k', 0xff, 0xfe, 0xfd, '\n', 'x'}
	text := Decode(raw)

	assert.True(t, strings.HasPrefix(text, "ok"))
	assert.Contains(t, text, "�")
	assert.Equal(t, 2, CountLines(text))
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	text := Decode([]byte("\xef\xbb\xbfhello\nworld"))
	assert.Equal(t, "hello\nworld", text)
}

func TestCommentLines(t *testing.T) {
	js := "// header\nconst a = 1;\n/* block\n   comment */\nfoo();"
	assert.Equal(t, 3, CommentLines(JavaScript, js))

	py := "# note\ndef f():\n    \"\"\"doc\n    string\"\"\"\n    return 1"
	assert.Equal(t, 3, CommentLines(Python, py))

	html := "<div>\n<!-- hidden -->\n</div>"
	assert.Equal(t, 1, CommentLines(HTML, html))

	bat := "@echo off\nREM comment\n:: other\necho hi"
	assert.Equal(t, 2, CommentLines(Batch, bat))

	assert.Zero(t, CommentLines(JSON, `{"a": 1}`))
	assert.Zero(t, CommentLines(Shell, ""))
}
