package scrape

import "strings"

// RemoveComments blanks C comments with spaces. Newlines are preserved so
// line numbers of the result match the input.
func RemoveComments(src string) string {
	const (
		stateNormal = iota
		stateLineComment
		stateBlockComment
		stateString
		stateChar
	)

	out := []byte(src)
	state := stateNormal
	for i := 0; i < len(out); i++ {
		c := out[i]
		var next byte
		if i+1 < len(out) {
			next = out[i+1]
		}
		switch state {
		case stateNormal:
			switch {
			case c == '/' && next == '/':
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateLineComment
			case c == '/' && next == '*':
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateBlockComment
			case c == '"':
				state = stateString
			case c == '\'':
				state = stateChar
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateNormal
			} else if c != '\n' {
				out[i] = ' '
			}
		case stateString, stateChar:
			quote := byte('"')
			if state == stateChar {
				quote = '\''
			}
			switch c {
			case '\\':
				if next != '\n' {
					i++
				}
			case quote, '\n':
				state = stateNormal
			}
		}
	}
	return string(out)
}

// RemovePreprocessor blanks preprocessor directives, including continuation
// lines. Directives are not evaluated: both branches of #if blocks remain.
// Run it after RemoveComments.
func RemovePreprocessor(src string) string {
	lines := strings.Split(src, "\n")
	continued := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if continued || strings.HasPrefix(trimmed, "#") {
			continued = strings.HasSuffix(strings.TrimRight(line, " \t\r"), "\\")
			lines[i] = strings.Repeat(" ", len(line))
		}
	}
	return strings.Join(lines, "\n")
}

var attributeKeywords = []string{"__attribute__", "__attribute", "__declspec"}

// RemoveAttributes blanks GNU/MSVC attribute clauses such as
// `__attribute__((used))`. Newlines inside the clause are kept.
func RemoveAttributes(src string) string {
	out := []byte(src)
	for _, kw := range attributeKeywords {
		start := 0
		for {
			idx := strings.Index(string(out[start:]), kw)
			if idx < 0 {
				break
			}
			p := start + idx
			end := p + len(kw)
			// Only whole identifiers.
			if (p > 0 && isIdentByte(out[p-1])) || (end < len(out) && isIdentByte(out[end])) {
				start = end
				continue
			}
			q := end
			for q < len(out) && (out[q] == ' ' || out[q] == '\t' || out[q] == '\n' || out[q] == '\r') {
				q++
			}
			if q < len(out) && out[q] == '(' {
				depth := 0
				for ; q < len(out); q++ {
					if out[q] == '(' {
						depth++
					} else if out[q] == ')' {
						depth--
						if depth == 0 {
							q++
							break
						}
					}
				}
			}
			for k := p; k < q; k++ {
				if out[k] != '\n' {
					out[k] = ' '
				}
			}
			start = q
		}
	}
	return string(out)
}

// Clean applies every source normalisation pass in order
func Clean(src string) string {
	return RemoveAttributes(RemovePreprocessor(RemoveComments(src)))
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// sourceLines splits src so that index n holds line n (1-based); index 0 is empty.
func sourceLines(src string) []string {
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines)+1)
	out = append(out, "")
	for _, l := range lines {
		out = append(out, strings.TrimSuffix(l, "\r"))
	}
	return out
}
