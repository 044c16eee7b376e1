package sshexec

import (
	"fmt"
	"strings"
)

// redirectMapping translates a stream selector into the shell redirection
// operator appended to the assembled command line. Numeric fd selectors
// ("3", "4", ...) are accepted verbatim as "N>".
var redirectMapping = map[string]string{
	"in":  "<",
	"out": ">",
	"err": "2>",
	"0":   "<",
	"1":   ">",
	"2":   "2>",
}

// redirectOperator resolves key to the operator string appended to the
// command line. A key not in redirectMapping and not a bare fd number is
// used verbatim as the operator itself — this is how a caller spells an
// operator redirectMapping doesn't name, e.g. {">>" : "/tmp/log"} for
// append-mode redirection.
func redirectOperator(key string) string {
	if op, ok := redirectMapping[key]; ok {
		return op
	}
	if isFD(key) {
		return key + ">"
	}
	return key
}

func isFD(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// buildRedirects appends shell redirection clauses to cmdline for every
// entry in redirects, in the caller's declaration order (spec.md §4.6/§6),
// e.g. {{Key: ">>", Dest: "/tmp/log"}, {Key: "err", Dest: 1}} renders
// " >>'/tmp/log' 2>&1". Path destinations are always single-quoted, even
// when they contain no shell metacharacters, so the suffix never reads as
// the bare " >>/tmp/log 2>&1".
//
// A destination is either an int, meaning "dup onto file descriptor N"
// (rendered as "&N"), or a string, meaning a path, which is shell-escaped.
func buildRedirects(cmdline string, redirects []Redirect) (string, error) {
	if len(redirects) == 0 {
		return cmdline, nil
	}
	var b strings.Builder
	b.WriteString(cmdline)
	for _, r := range redirects {
		dest, err := renderDest(r.Dest)
		if err != nil {
			return "", fmt.Errorf("sshexec; redirect %q: %w", r.Key, err)
		}
		b.WriteString(" ")
		b.WriteString(redirectOperator(r.Key))
		b.WriteString(dest)
	}
	return b.String(), nil
}

func renderDest(dest any) (string, error) {
	switch v := dest.(type) {
	case int:
		return fmt.Sprintf("&%d", v), nil
	case string:
		return shellQuote(v), nil
	default:
		return "", fmt.Errorf("destination must be int (fd) or string (path), got %T", dest)
	}
}

// shellQuote wraps s in single quotes, escaping embedded single quotes the
// POSIX-shell way: close the quote, emit an escaped quote, reopen it.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
