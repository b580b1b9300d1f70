package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	maxHookRunes       = 150
	maxConclusionRunes = 200
	minSocialBlocks    = 3
	minH2Sections      = 3
	frontmatterFence   = "---"
)

var (
	frontmatterKeys = []string{"Focus Keyword:", "Meta Title:", "Meta Description:", "URL:"}
	blankLineRegex  = regexp.MustCompile(`\n[ \t]*\n`)
	markdownParser  = goldmark.New().Parser()
)

// Blocks splits text into blank-line separated blocks, dropping empty ones.
func Blocks(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var blocks []string
	for _, block := range blankLineRegex.Split(s, -1) {
		if block = strings.TrimSpace(block); block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func socialStructure(body string) bool {
	blocks := Blocks(body)
	if len(blocks) < minSocialBlocks {
		return false
	}

	hook, _, _ := strings.Cut(blocks[0], "\n")
	if utf8.RuneCountInString(strings.TrimSpace(hook)) > maxHookRunes {
		return false
	}

	return utf8.RuneCountInString(blocks[len(blocks)-1]) <= maxConclusionRunes
}

// SplitFrontmatter separates a leading --- delimited block from the rest of
// the document. ok is false when the document does not open with one.
func SplitFrontmatter(doc string) (meta, body string, ok bool) {
	doc = strings.TrimLeft(strings.ReplaceAll(doc, "\r\n", "\n"), " \t\n")
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterFence {
		return "", doc, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterFence {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", doc, false
}

func hasFrontmatter(doc string) bool {
	meta, _, ok := SplitFrontmatter(doc)
	if !ok {
		return false
	}

	for _, key := range frontmatterKeys {
		if !hasLinePrefix(meta, key) {
			return false
		}
	}
	return true
}

func hasLinePrefix(block, prefix string) bool {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-* ")
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// HeadingCounts returns the number of headings per level (index 1..6) in the
// Markdown body following any frontmatter.
func HeadingCounts(doc string) [7]int {
	_, body, _ := SplitFrontmatter(doc)
	source := []byte(body)

	var counts [7]int
	root := markdownParser.Parse(text.NewReader(source))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if heading, ok := n.(*ast.Heading); ok && entering {
			counts[heading.Level]++
		}
		return ast.WalkContinue, nil
	})
	return counts
}

func hasHeadingOutline(doc string) bool {
	counts := HeadingCounts(doc)
	return counts[1] == 1 && counts[2] >= minH2Sections
}
