package decoder

import "strings"

// specialCharacters spells out punctuation that may appear in names but not
// in generated class names.
var specialCharacters = map[rune]string{
	'!':  "EXCLAM",
	'@':  "AT",
	'#':  "NUM",
	'$':  "DOLLAR",
	'%':  "PERCENT",
	'^':  "CARET",
	'&':  "AND",
	'*':  "STAR",
	'+':  "PLUS",
	'-':  "MINUS",
	'=':  "EQUALS",
	'?':  "QMARK",
	'.':  "DOT",
	';':  "SEMICOLON",
	'\'': "APOST",
	',':  "COMMA",
	':':  "COLON",
	'~':  "TILDE",
	'|':  "PIPE",
	'/':  "SLASH",
	'\\': "BACKSLASH",
	'<':  "LESS",
	'>':  "GREATER",
	'(':  "LPAREN",
	')':  "RPAREN",
	'[':  "LBRACKET",
	']':  "RBRACKET",
	'{':  "LBRACE",
	'}':  "RBRACE",
	'"':  "QUOTE",
	'`':  "BACKTICK",
}

// ClassName joins name parts into an identifier safe for a generated type.
// Punctuation is spelled out and every other non [A-Za-z0-9_] rune is dropped.
func ClassName(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, r := range part {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
				b.WriteRune(r)
			default:
				if word, ok := specialCharacters[r]; ok {
					b.WriteString(word)
				}
			}
		}
	}
	return b.String()
}
