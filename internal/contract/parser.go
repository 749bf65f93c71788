// Package contract extracts a structured (format, content, brief) answer
// from unstructured, possibly malformed provider output.
//
// Providers are asked to reply with a JSON object but are not guaranteed to
// honor that. Parse degrades gracefully instead of failing the request:
// direct JSON first, then a fence-stripped retry, then a scan for an embedded
// JSON object, and finally the whole raw text treated as Markdown prose.
package contract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ashureev/askbox/internal/domain"
)

// codeFenceRE matches a fenced block that wraps the entire trimmed string:
// triple backticks with an optional "json" language tag. Fences embedded
// mid-text do not match.
var codeFenceRE = regexp.MustCompile("(?is)^```(?:json)?\\s*(.*?)\\s*```$")

// Parse turns raw provider output into a usable contract. It never fails;
// earlier steps always win over later ones so ambiguous inputs parse
// deterministically.
func Parse(raw string) domain.ResponseContract {
	// 1) The whole string is a JSON object.
	if c, ok := fromJSON(raw); ok {
		return c
	}

	// 2) Strip a single enclosing code fence and retry.
	if unfenced, ok := stripCodeFence(raw); ok {
		if c, ok := fromJSON(unfenced); ok {
			return c
		}
		// 3) Look for an embedded JSON object in the unfenced text.
		if frag, ok := firstJSONObject(unfenced); ok {
			if c, ok := fromJSON(frag); ok {
				return c
			}
		}
	} else if frag, ok := firstJSONObject(raw); ok {
		// 3) No fence; scan the raw text directly.
		if c, ok := fromJSON(frag); ok {
			return c
		}
	}

	// 4) Fallback: assume Markdown prose.
	return domain.ResponseContract{
		Format:  domain.FormatMarkdown,
		Content: raw,
	}
}

// fromJSON decodes s as a JSON object and extracts the contract fields.
// Non-object JSON values (arrays, numbers, bare strings) are rejected.
func fromJSON(s string) (domain.ResponseContract, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return domain.ResponseContract{}, false
	}
	// JSON null unmarshals into a nil map without error; only real objects
	// carry contract fields.
	if obj == nil {
		return domain.ResponseContract{}, false
	}

	c := domain.ResponseContract{
		Format:  strings.ToLower(stringField(obj, "format", domain.FormatMarkdown)),
		Content: stringField(obj, "content", ""),
		Brief:   stringField(obj, "brief", ""),
	}
	return c, true
}

// stringField reads a string-valued key from obj, falling back to def when
// the key is absent or holds a non-string value.
func stringField(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// stripCodeFence removes a fence that wraps the entire trimmed string.
// Returns the inner text and whether a fence was found.
func stripCodeFence(s string) (string, bool) {
	m := codeFenceRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s, false
	}
	return m[1], true
}

// firstJSONObject extracts the first top-level JSON object substring from s.
// It locates the first '{', then tries progressively earlier '}' positions
// from the end until one of the candidate substrings parses as JSON. This
// handles providers that prepend or append prose around the object.
func firstJSONObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	for end := len(s) - 1; end > start; end-- {
		if s[end] != '}' {
			continue
		}
		chunk := s[start : end+1]
		if json.Valid([]byte(chunk)) {
			return chunk, true
		}
	}
	return "", false
}
