// Package sqlutil provides small helpers for working with raw SQL text.
package sqlutil

import "strings"

// SplitSQLStatements splits a SQL script into individual statements on
// semicolons. Semicolons inside single-quoted, double-quoted or backtick
// string literals are not treated as separators. Empty statements are
// dropped.
func SplitSQLStatements(sql string) []string {
	var statements []string
	var sb strings.Builder
	var quote byte

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		switch {
		case quote != 0:
			sb.WriteByte(ch)
			if ch == quote {
				// Doubled quote characters escape themselves inside literals.
				if i+1 < len(sql) && sql[i+1] == quote {
					sb.WriteByte(sql[i+1])
					i++
				} else {
					quote = 0
				}
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			sb.WriteByte(ch)
		case ch == ';':
			if stmt := strings.TrimSpace(sb.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			sb.Reset()
		default:
			sb.WriteByte(ch)
		}
	}

	if stmt := strings.TrimSpace(sb.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// StripComments removes line comments (-- ...) and block comments (/* ... */)
// from a SQL script. Comment markers inside string literals are preserved.
func StripComments(sql string) string {
	var sb strings.Builder
	var quote byte
	inLineComment := false
	inBlockComment := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		switch {
		case inLineComment:
			if ch == '\n' {
				inLineComment = false
				sb.WriteByte(ch)
			}
		case inBlockComment:
			if ch == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case quote != 0:
			sb.WriteByte(ch)
			if ch == quote {
				if i+1 < len(sql) && sql[i+1] == quote {
					sb.WriteByte(sql[i+1])
					i++
				} else {
					quote = 0
				}
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			sb.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			inLineComment = true
			i++
		case ch == '/' && i+1 < len(sql) && sql[i+1] == '*':
			inBlockComment = true
			i++
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}
