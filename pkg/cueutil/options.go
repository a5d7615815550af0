// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the largest input ParseAndDecode accepts (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures parsing behavior.
	Option func(*parseOptions)
)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

func (o parseOptions) displayName() string {
	if o.filename == "" {
		return "<input>"
	}
	return o.filename
}

// WithMaxFileSize sets the maximum input size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// WithConcrete sets whether all values must be concrete after unification.
// Defaults to true.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) { o.filename = name }
}
