package scenario

import (
	"fmt"
	"strings"
)

// Render substitutes {field} placeholders in text with values from ctx.
// Doubled braces escape a literal brace. A placeholder referencing an
// unknown field or a field that has not been collected yet is an error;
// the literal placeholder is never emitted.
func Render(text string, ctx *Context) (string, error) {
	if !strings.ContainsAny(text, "{}") {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			key := text[i+1 : i+end]
			value, known := ctx.Value(Field(key))
			if !known {
				return "", fmt.Errorf("template references unknown field %q", key)
			}
			if value == "" {
				return "", fmt.Errorf("template field %q has no collected value", key)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// placeholders extracts the referenced field names so templates can be
// checked against the known field set when the configuration is loaded.
func placeholders(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		if text[i] != '{' {
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == '{' {
			i += 2
			continue
		}
		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			break
		}
		out = append(out, text[i+1:i+end])
		i += end + 1
	}
	return out
}
