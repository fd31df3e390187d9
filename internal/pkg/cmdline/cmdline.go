// Package cmdline renders argument vectors as copy-pasteable shell text.
package cmdline

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Format joins cmd and args, quoting each word for bash only when needed.
// The result is for display and logs; commands are never run through a shell.
func Format(cmd string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, Quote(cmd))
	for _, arg := range args {
		words = append(words, Quote(arg))
	}
	return strings.Join(words, " ")
}

// Quote returns word in a form bash reads back verbatim.
func Quote(word string) string {
	if word == "" {
		return "''"
	}
	quoted, err := syntax.Quote(word, syntax.LangBash)
	if err != nil {
		return strconv.Quote(word)
	}
	return quoted
}
