package linecount

import (
	"regexp"
	"strings"
)

// Comment counting is a regex heuristic. Results are approximate and never
// feed into report totals.

var (
	slashLineComment = regexp.MustCompile(`(?m)^[ \t]*//.*$`)
	slashBlock       = regexp.MustCompile(`(?s)/\*.*?\*/`)
	hashLineComment  = regexp.MustCompile(`(?m)^[ \t]*#.*$`)
	markupBlock      = regexp.MustCompile(`(?s)<!--.*?-->`)
	tripleDouble     = regexp.MustCompile(`(?s)"""(?:.*?)"""`)
	tripleSingle     = regexp.MustCompile(`(?s)'''(?:.*?)'''`)
	batchRemark      = regexp.MustCompile(`(?mi)^[ \t]*(?:@?rem\b|::).*$`)
)

var commentRules = map[Category][]*regexp.Regexp{
	JavaScript: {slashLineComment, slashBlock},
	TypeScript: {slashLineComment, slashBlock},
	CSS:        {slashLineComment, slashBlock},
	HTML:       {markupBlock},
	XML:        {markupBlock},
	Markdown:   {markupBlock},
	Python:     {hashLineComment, tripleDouble, tripleSingle},
	Shell:      {hashLineComment},
	YAML:       {hashLineComment},
	Batch:      {batchRemark},
}

// CommentLines estimates how many lines of text are comments for category c.
// Categories without comment syntax (json, text) report zero.
func CommentLines(c Category, text string) int {
	rules, ok := commentRules[c]
	if !ok || text == "" {
		return 0
	}
	n := 0
	for _, re := range rules {
		for _, m := range re.FindAllString(text, -1) {
			n += strings.Count(m, "\n") + 1
		}
	}
	if total := CountLines(text); n > total {
		n = total
	}
	return n
}
