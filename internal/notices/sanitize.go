package notices

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy

	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

// getMessagePolicy returns the allow-list applied to notice messages: inline
// formatting, lists, code and safe links.
func getMessagePolicy() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "strong", "i", "em", "u", "del", "br", "p", "span", "code", "pre", "ul", "ol", "li", "small")
		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.AllowStandardURLs()
		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span", "code")
		messagePolicy = p
	})
	return messagePolicy
}

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	})
	return markdown
}

// SanitizeMessage converts the message to HTML if needed and strips anything
// outside the allow-list.
func SanitizeMessage(message string, format Format) (template.HTML, error) {
	source := message
	if format == FormatMarkdown {
		var buf bytes.Buffer
		if err := getMarkdown().Convert([]byte(message), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		source = unwrapParagraph(buf.String())
	}
	// #nosec G203 -- output of the allow-list policy
	return template.HTML(getMessagePolicy().Sanitize(source)), nil
}

// unwrapParagraph drops the paragraph goldmark wraps around single-line
// input; the banner already renders the message inside one.
func unwrapParagraph(rendered string) string {
	trimmed := strings.TrimSpace(rendered)
	if strings.Count(trimmed, "<p>") != 1 || !strings.HasPrefix(trimmed, "<p>") || !strings.HasSuffix(trimmed, "</p>") {
		return rendered
	}
	return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<p>"), "</p>")
}
