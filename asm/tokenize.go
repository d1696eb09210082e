package asm

import "strings"

// token is one whitespace-separated unit of source text with ';' line
// comments already stripped.
type token struct {
	text string
	line int
}

func tokenize(source string) []token {
	var toks []token
	for i, line := range strings.Split(source, "\n") {
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		for _, field := range strings.Fields(line) {
			toks = append(toks, token{text: field, line: i + 1})
		}
	}
	return toks
}

func isLabelDef(t string) bool {
	return len(t) > 1 && strings.HasSuffix(t, ":")
}

func isRegister(t string) (num int, ok bool) {
	if len(t) < 2 || t[0] != 'r' {
		return 0, false
	}
	n := 0
	for _, c := range t[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
