// Package directive recognizes directive lines and dispatches them to registered behaviors.
package directive

// PrefixCharacter introduces a directive line.
const PrefixCharacter = '#'

// Parsed is a directive line split into its name and argument.
type Parsed struct {
	Name     string
	Argument string
}

// Scan splits line into a directive name and argument.
//
// A line is a directive when, after leading blanks, it starts with PrefixCharacter followed by a
// letter. The name continues over letters and hyphens. The name must be followed by the end of the
// line or by whitespace; anything else makes the line literal text. The argument is the rest of
// the line with surrounding whitespace removed.
func Scan(line []byte) (Parsed, bool) {
	index := skipWhitespace(line, 0)
	if index >= len(line) || line[index] != PrefixCharacter {
		return Parsed{}, false
	}
	index++

	nameStart := index
	if index >= len(line) || !isLetter(line[index]) {
		return Parsed{}, false
	}
	for index < len(line) && (isLetter(line[index]) || line[index] == '-') {
		index++
	}
	nameEnd := index

	if index == len(line) {
		return Parsed{Name: string(line[nameStart:nameEnd])}, true
	}
	if !isWhitespace(line[index]) {
		return Parsed{}, false
	}

	argumentStart := skipWhitespace(line, index)
	argumentEnd := len(line)
	for argumentEnd > argumentStart && isWhitespace(line[argumentEnd-1]) {
		argumentEnd--
	}
	return Parsed{
		Name:     string(line[nameStart:nameEnd]),
		Argument: string(line[argumentStart:argumentEnd]),
	}, true
}

func skipWhitespace(line []byte, index int) int {
	for index < len(line) && isWhitespace(line[index]) {
		index++
	}
	return index
}

func isWhitespace(value byte) bool {
	return value == ' ' || value == '\t' || value == '\r'
}

func isLetter(value byte) bool {
	return (value >= 'a' && value <= 'z') || (value >= 'A' && value <= 'Z')
}
