package stage1

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractJSONObject implements §4.4 step 1: strip Markdown code-fences if
// present, then locate the first/last balanced JSON object in what
// remains. Returns the raw JSON text.
func extractJSONObject(response string) (string, error) {
	candidates := []string{response}
	if fenced := firstFencedBlock(response); fenced != "" {
		candidates = append([]string{fenced}, candidates...)
	}

	for _, c := range candidates {
		if obj := firstBalancedObject(c); obj != "" {
			return obj, nil
		}
	}
	return "", &ParseError{Raw: response, Reason: "no balanced JSON object found"}
}

// firstFencedBlock returns the content of the first fenced code block in
// a Markdown document, using goldmark to parse rather than regexing for
// triple-backticks (which breaks on nested backticks in explanations).
func firstFencedBlock(src string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(src))
	doc := md.Parser().Parse(reader)

	var content string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || content != "" {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			buf.Write(line.Value([]byte(src)))
		}
		content = buf.String()
		return ast.WalkStop, nil
	})
	return content
}

// firstBalancedObject scans src for the first '{' and returns the text up
// to its matching '}', tracking string/escape state so braces inside
// quoted strings don't throw off the balance count.
func firstBalancedObject(src string) string {
	start := strings.IndexByte(src, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(src); i++ {
		c := src[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := src[start : i+1]
				var js json.RawMessage
				if json.Unmarshal([]byte(candidate), &js) == nil {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}
