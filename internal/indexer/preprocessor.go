package indexer

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Preprocess normalizes text for embedding (trim, collapse whitespace).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// frontMatter holds the fields read from a markdown YAML header.
type frontMatter struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
}

// Page is a parsed markdown source file.
type Page struct {
	Title string
	Slug  string
	Body  string
}

var (
	fenceRe   = regexp.MustCompile("(?s)```.*?```")
	linkRe    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	htmlRe    = regexp.MustCompile(`<[^>]+>`)
	headingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	markRe    = regexp.MustCompile("(?m)^\\s*(#{1,6}|>|[-*+]|\\d+\\.)\\s+|[*_`~]")
)

// ParseMarkdown splits off a YAML front matter block and reduces the body to plain
// text. The title is the front matter title, else the first level-one heading.
func ParseMarkdown(src []byte) (Page, error) {
	var page Page
	body := src
	if rest, ok := bytes.CutPrefix(src, []byte("---\n")); ok {
		if header, after, found := bytes.Cut(rest, []byte("\n---")); found {
			var fm frontMatter
			if err := yaml.Unmarshal(header, &fm); err != nil {
				return Page{}, err
			}
			page.Title, page.Slug = fm.Title, fm.Slug
			body = after
			if i := bytes.IndexByte(body, '\n'); i >= 0 {
				body = body[i+1:]
			} else {
				body = nil
			}
		}
	}

	text := string(body)
	if page.Title == "" {
		if m := headingRe.FindStringSubmatch(text); m != nil {
			page.Title = strings.TrimSpace(m[1])
		}
	}
	text = fenceRe.ReplaceAllString(text, " ")
	text = linkRe.ReplaceAllString(text, "$1")
	text = htmlRe.ReplaceAllString(text, " ")
	text = markRe.ReplaceAllString(text, "")
	page.Body = Preprocess(text)
	return page, nil
}
