// Package render turns stored answer text into safe, display-ready markup.
//
// This is deliberately not a general HTML sanitizer. Everything is escaped up
// front, then a small fixed allow-list of benign tags is unescaped in a single
// tokenizing pass, with attributes always dropped. Any tag outside the
// allow-list stays escaped and shows up as literal text.
package render

import (
	"html"
	"regexp"
	"strings"
)

// allowedTags is the fixed set of tag names trusted to pass through
// unescaped. Attributes are stripped even for these.
var allowedTags = map[string]bool{
	"strong": true, "b": true, "em": true, "i": true,
	"p": true, "br": true, "ul": true, "ol": true, "li": true,
	"code": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "hr": true, "article": true, "section": true,
}

var (
	// Escaped <body ...>...</body> and <html ...>...</html> wrappers.
	// The attribute run excludes '&' so escaped entities end the match,
	// same as the allow-list tokenizer below.
	bodyRE = regexp.MustCompile(`(?is)&lt;body[^&]*&gt;(.*?)&lt;/body&gt;`)
	htmlRE = regexp.MustCompile(`(?is)&lt;html[^&]*&gt;(.*?)&lt;/html&gt;`)

	// Matched **bold** pairs. '.' does not cross newlines, so a pair split
	// over a line break is left for the dangling-marker rule.
	boldRE = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// Answer renders stored answer text as safe markup. Empty input renders
// to the empty string.
func Answer(ans string) string {
	if ans == "" {
		return ""
	}

	// Escape everything first. This is the safety floor: nothing after this
	// point may reintroduce a tag that isn't explicitly allow-listed.
	s := html.EscapeString(ans)

	// Providers sometimes ignore instructions and emit a complete HTML page.
	// Keep only the (still escaped) body or html inner content.
	if m := bodyRE.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if m := htmlRE.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	s = unescapeAllowed(s)

	// Markdown bold. Leftover unmatched '**' markers each become a bare
	// opening tag; downstream consumers key off this exact behavior.
	s = boldRE.ReplaceAllString(s, "<strong>$1</strong>")
	s = strings.ReplaceAll(s, "**", "<strong>")

	// Preserve newlines.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "<br>")

	return s
}

// unescapeAllowed walks the escaped text once and rewrites allow-listed tags
// back to live markup. Opening tags lose their attributes, closing and
// self-closing forms are normalized. Anything that doesn't parse as an
// allow-listed tag is emitted unchanged (still escaped).
func unescapeAllowed(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if !strings.HasPrefix(s[i:], "&lt;") {
			b.WriteByte(s[i])
			i++
			continue
		}
		if tag, next, ok := parseEscapedTag(s, i); ok {
			b.WriteString(tag)
			i = next
			continue
		}
		b.WriteString("&lt;")
		i += len("&lt;")
	}

	return b.String()
}

// parseEscapedTag tries to read an escaped allow-listed tag starting at the
// "&lt;" at s[i]. On success it returns the live replacement tag and the
// index just past the closing "&gt;".
func parseEscapedTag(s string, i int) (string, int, bool) {
	j := i + len("&lt;")

	closing := false
	if j < len(s) && s[j] == '/' {
		closing = true
		j++
	}

	nameStart := j
	for j < len(s) && isTagNameByte(s[j]) {
		j++
	}
	name := strings.ToLower(s[nameStart:j])
	if !allowedTags[name] {
		return "", 0, false
	}

	if closing {
		// Optional whitespace, then the end of the tag.
		j = skipSpaces(s, j)
		if !strings.HasPrefix(s[j:], "&gt;") {
			return "", 0, false
		}
		return "</" + name + ">", j + len("&gt;"), true
	}

	// Bare opening tag: <tag>
	if strings.HasPrefix(s[j:], "&gt;") {
		return "<" + name + ">", j + len("&gt;"), true
	}

	// Self-closing without attributes: <tag/> or <tag / >
	if j < len(s) && s[j] == '/' {
		k := skipSpaces(s, j+1)
		if strings.HasPrefix(s[k:], "&gt;") {
			return "<" + name + "/>", k + len("&gt;"), true
		}
		return "", 0, false
	}

	// Attributes must start with whitespace and may not contain '&': any
	// escaped entity (quotes included) ends the run, leaving the tag
	// escaped. Attributes are dropped, never re-emitted — a trailing '/'
	// counts as part of the attribute run, so <tag attr /> normalizes to
	// the opening form.
	if j >= len(s) || !isSpaceByte(s[j]) {
		return "", 0, false
	}
	k := j
	for k < len(s) && s[k] != '&' {
		k++
	}
	if !strings.HasPrefix(s[k:], "&gt;") {
		return "", 0, false
	}
	return "<" + name + ">", k + len("&gt;"), true
}

func isTagNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return i
}
