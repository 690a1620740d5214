package sql

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionError reports a locked filter value that tripped the SQLi check.
type InjectionError struct {
	Column      string
	Fingerprint string
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("filter value for %s looks like sql injection (fingerprint %s)", e.Column, e.Fingerprint)
}

// screenValue runs the libinjection SQLi detector over a filter value before
// it is embedded as a quoted literal. Values come from warehouse rows or user
// text, never from trusted code, so both quoting contexts are probed the way
// the literal will actually appear.
func screenValue(column, value string) error {
	for _, probe := range []string{value, "'" + value + "'"} {
		if found, fingerprint := libinjection.IsSQLi(probe); found {
			return &InjectionError{Column: column, Fingerprint: string(fingerprint)}
		}
	}
	return nil
}

// escapeLiteral doubles single quotes so a value is safe inside a quoted
// SQL string literal. Callers must screen the value first.
func escapeLiteral(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, value[i])
	}
	return string(out)
}
