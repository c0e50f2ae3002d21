package gomonetdb

import "strings"

// interpolateParams substitutes parameters into a statement before it is sent.
// Three parameter shapes are accepted: a map binds to named :key markers, a
// slice binds positionally to ? markers, and any other non-nil value is a
// scalar bound to a single ? marker. Markers inside quoted literals are left
// alone.
func interpolateParams(query string, params interface{}) (string, error) {
	if params == nil {
		return query, nil
	}
	switch p := params.(type) {
	case map[string]interface{}:
		return bindNamed(query, p)
	case []interface{}:
		return bindPositional(query, p)
	default:
		return bindPositional(query, []interface{}{params})
	}
}

func bindPositional(query string, params []interface{}) (string, error) {
	var sb strings.Builder
	sb.Grow(len(query))
	next := 0
	err := scanStatement(query, func(tok token) error {
		if tok.kind != tokenPlaceholder {
			sb.WriteString(tok.text)
			return nil
		}
		if next >= len(params) {
			return &MonetDBError{
				Number:      ErrCodeBindMismatch,
				Message:     "statement has more placeholders than the %v parameters given",
				MessageArgs: []interface{}{len(params)},
			}
		}
		literal, err := valueToLiteral(params[next])
		if err != nil {
			return err
		}
		next++
		sb.WriteString(literal)
		return nil
	})
	if err != nil {
		return "", err
	}
	if next != len(params) {
		return "", &MonetDBError{
			Number:      ErrCodeBindMismatch,
			Message:     "%v parameters given for %v placeholders",
			MessageArgs: []interface{}{len(params), next},
		}
	}
	return sb.String(), nil
}

func bindNamed(query string, params map[string]interface{}) (string, error) {
	var sb strings.Builder
	sb.Grow(len(query))
	err := scanStatement(query, func(tok token) error {
		if tok.kind != tokenNamed {
			sb.WriteString(tok.text)
			return nil
		}
		value, ok := params[tok.name]
		if !ok {
			return &MonetDBError{
				Number:      ErrCodeBindMismatch,
				Message:     "no value bound for parameter :%v",
				MessageArgs: []interface{}{tok.name},
			}
		}
		literal, err := valueToLiteral(value)
		if err != nil {
			return err
		}
		sb.WriteString(literal)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// numPlaceholders counts the positional markers of a statement, for
// driver.Stmt.NumInput.
func numPlaceholders(query string) int {
	n := 0
	_ = scanStatement(query, func(tok token) error {
		if tok.kind == tokenPlaceholder {
			n++
		}
		return nil
	})
	return n
}

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenPlaceholder
	tokenNamed
)

type token struct {
	kind tokenKind
	text string // verbatim text, including quoted literals and their quotes
	name string // identifier of a tokenNamed marker
}

// scanStatement splits a statement into verbatim text runs, positional ?
// markers, and named :identifier markers. Quoted literals are reported as
// text; markers inside them are never recognized.
func scanStatement(query string, emit func(token) error) error {
	start := 0
	flush := func(end int) error {
		if end > start {
			if err := emit(token{kind: tokenText, text: query[start:end]}); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < len(query); i++ {
		switch c := query[i]; c {
		case '\'', '"':
			// skip to the closing quote, honoring backslash escapes
			for i++; i < len(query); i++ {
				if query[i] == '\\' {
					i++
				} else if query[i] == c {
					break
				}
			}
		case '?':
			if err := flush(i); err != nil {
				return err
			}
			if err := emit(token{kind: tokenPlaceholder, text: "?"}); err != nil {
				return err
			}
			start = i + 1
		case ':':
			if i+1 >= len(query) || !isIdentByte(query[i+1]) {
				continue
			}
			if err := flush(i); err != nil {
				return err
			}
			j := i + 1
			for j < len(query) && isIdentByte(query[j]) {
				j++
			}
			if err := emit(token{kind: tokenNamed, text: query[i:j], name: query[i+1 : j]}); err != nil {
				return err
			}
			i = j - 1
			start = j
		}
	}
	return flush(len(query))
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
