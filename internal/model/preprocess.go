package model

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	nonLetterPattern  = regexp.MustCompile(`[^a-z\s]`)
	markdownLinkRegex = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
)

type step func(string) (string, error)

var steps = map[string]step{
	"lowercase": func(s string) (string, error) {
		return strings.ToLower(s), nil
	},
	"markdown": func(s string) (string, error) {
		s = markdownLinkRegex.ReplaceAllString(s, "$1")
		out := blackfriday.Run([]byte(s), blackfriday.WithNoExtensions())
		return string(out), nil
	},
	"strip_html": func(s string) (string, error) {
		return htmlTagPattern.ReplaceAllString(s, " "), nil
	},
	"html_unescape": func(s string) (string, error) {
		return html.UnescapeString(s), nil
	},
	"strip_urls": func(s string) (string, error) {
		return urlPattern.ReplaceAllString(s, " "), nil
	},
	"fold_accents": foldAccents,
	"letters_only": func(s string) (string, error) {
		return nonLetterPattern.ReplaceAllString(s, " "), nil
	},
	"stopwords": func(s string) (string, error) {
		return stopwords.CleanString(s, "en", false), nil
	},
	"collapse_whitespace": func(s string) (string, error) {
		return strings.Join(strings.Fields(s), " "), nil
	},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) (string, error) {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return "", fmt.Errorf("fold accents: %w", err)
	}
	return out, nil
}

// Pipeline is a Preprocessor built from named steps applied in order.
type Pipeline struct {
	names []string
	steps []step
}

// NewPipeline resolves step names. Unknown names are an error so that a bundle
// never runs with a silently different preprocessing than it was trained with.
func NewPipeline(names []string) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("preprocessing pipeline has no steps")
	}
	p := &Pipeline{names: append([]string(nil), names...)}
	for _, name := range names {
		fn, ok := steps[name]
		if !ok {
			return nil, fmt.Errorf("unknown preprocessing step %q", name)
		}
		p.steps = append(p.steps, fn)
	}
	return p, nil
}

func (p *Pipeline) Preprocess(text string) (string, error) {
	var err error
	for i, fn := range p.steps {
		text, err = fn(text)
		if err != nil {
			return "", fmt.Errorf("step %s: %w", p.names[i], err)
		}
	}
	return text, nil
}

func (p *Pipeline) Steps() []string {
	return append([]string(nil), p.names...)
}
