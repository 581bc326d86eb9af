package shell

import "strings"

// safeChars are bytes that never need quoting in a POSIX shell word.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./_-"

// Quote returns s as a single shell word.
//
// Words made only of safe characters are returned unchanged so logged command
// lines stay readable. Anything else is wrapped in single quotes. Each
// embedded single quote closes the quoted run, is written as a
// backslash-escaped quote, and reopens the run:
//
//	it's  ->  'it'\''s'
//
// Inside single quotes the shell performs no expansion at all.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if isSafe(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// Join quotes each argument and joins them with single spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Command returns name followed by the quoted args. The name itself is
// inserted verbatim so callers can pass multi-word launchers such as
// "ros2 interface proto".
func Command(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + Join(args...)
}

func isSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(safeChars, s[i]) < 0 {
			return false
		}
	}
	return true
}
