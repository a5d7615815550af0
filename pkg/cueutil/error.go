// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// ValidationError is a single schema violation.
	ValidationError struct {
		FilePath string
		// CUEPath is the JSON-style path to the offending value, e.g.
		// "plugins.extractors[0].name".
		CUEPath string
		Message string
	}

	multiError struct {
		filePath   string
		violations []*ValidationError
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.CUEPath != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.CUEPath, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

func (e *ValidationError) line() string {
	if e.CUEPath != "" {
		return e.CUEPath + ": " + e.Message
	}
	return e.Message
}

func (m *multiError) Error() string {
	lines := make([]string, len(m.violations))
	for i, v := range m.violations {
		lines[i] = v.line()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", m.filePath, strings.Join(lines, "\n  "))
}

func (m *multiError) Unwrap() error { return m.violations[0] }

// FormatError flattens a CUE error into "<file>: <path>: <message>" lines.
//
//	meltano.yml: plugins.extractors[0].settings[1].kind: 3 errors in empty disjunction
//	config.cue: cli.log_level: invalid value "loud"
//
// The first violation is available as a *ValidationError through errors.As.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	violations := make([]*ValidationError, 0, len(cueErrors))
	for _, e := range cueErrors {
		path := errors.Path(e)
		pathStr := formatPath(path)
		msg := e.Error()
		for _, prefix := range []string{joinPath(path), pathStr} {
			if prefix != "" && strings.HasPrefix(msg, prefix) {
				msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, prefix), ":"))
				break
			}
		}
		violations = append(violations, &ValidationError{FilePath: filePath, CUEPath: pathStr, Message: msg})
	}

	if len(violations) == 1 {
		return violations[0]
	}
	return &multiError{filePath: filePath, violations: violations}
}

// formatPath turns ["#Project", "plugins", "extractors", "0", "name"] into
// "plugins.extractors[0].name". Leading definition names are dropped: users
// only ever see the document, never the schema wrapping it.
func formatPath(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return joinPath(path)
}

func joinPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize fails when data is larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
