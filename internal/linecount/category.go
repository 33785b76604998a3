package linecount

import (
	"path"
	"strings"
)

type Category string

const (
	JavaScript Category = "javascript"
	TypeScript Category = "typescript"
	CSS        Category = "css"
	HTML       Category = "html"
	Python     Category = "python"
	JSON       Category = "json"
	Markdown   Category = "markdown"
	YAML       Category = "yaml"
	Shell      Category = "shell"
	Batch      Category = "batch"
	Text       Category = "text"
	XML        Category = "xml"
)

// Categories lists every category in report order.
var Categories = []Category{
	JavaScript, TypeScript, CSS, HTML, Python, JSON,
	Markdown, YAML, Shell, Batch, Text, XML,
}

var extensions = map[string]Category{
	".js":       JavaScript,
	".jsx":      JavaScript,
	".mjs":      JavaScript,
	".ts":       TypeScript,
	".tsx":      TypeScript,
	".css":      CSS,
	".scss":     CSS,
	".sass":     CSS,
	".less":     CSS,
	".html":     HTML,
	".htm":      HTML,
	".py":       Python,
	".json":     JSON,
	".md":       Markdown,
	".markdown": Markdown,
	".txt":      Text,
	".xml":      XML,
	".yml":      YAML,
	".yaml":     YAML,
	".sh":       Shell,
	".bat":      Batch,
}

// Extension returns the lowercased extension of p including the dot. Leading
// dots of the base name do not start an extension, so ".bashrc" has none.
func Extension(p string) string {
	base := strings.TrimLeft(path.Base(p), ".")
	return strings.ToLower(path.Ext(base))
}

// CategoryFor looks up the category for the extension of p.
func CategoryFor(p string) (Category, bool) {
	ext := Extension(p)
	if ext == "" {
		return "", false
	}
	c, ok := extensions[ext]
	return c, ok
}
