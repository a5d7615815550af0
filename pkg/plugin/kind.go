// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Plugin kinds as they appear in the project file.
const (
	KindExtractors    Kind = "extractors"
	KindLoaders       Kind = "loaders"
	KindTransformers  Kind = "transformers"
	KindOrchestrators Kind = "orchestrators"
	KindUtilities     Kind = "utilities"
	KindMappers       Kind = "mappers"
	KindFiles         Kind = "files"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid plugin kind")

type (
	// Kind is the plural plugin type, e.g. "extractors".
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	InvalidKindError struct {
		Value Kind
	}

	kindNames struct {
		singular string
		verb     string
	}
)

var kinds = map[Kind]kindNames{
	KindExtractors:    {singular: "extractor", verb: "extract"},
	KindLoaders:       {singular: "loader", verb: "load"},
	KindTransformers:  {singular: "transformer", verb: "transform"},
	KindOrchestrators: {singular: "orchestrator", verb: "orchestrate"},
	KindUtilities:     {singular: "utility", verb: "utility"},
	KindMappers:       {singular: "mapper", verb: "map"},
	KindFiles:         {singular: "file", verb: "file"},
}

// Kinds returns every known kind in project-file order.
func Kinds() []Kind {
	return []Kind{KindExtractors, KindLoaders, KindTransformers, KindOrchestrators, KindUtilities, KindMappers, KindFiles}
}

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid plugin kind %q", e.Value)
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is for programmatic detection.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// Validate returns nil if k is a known kind.
func (k Kind) Validate() error {
	if _, ok := kinds[k]; !ok {
		return &InvalidKindError{Value: k}
	}
	return nil
}

// Singular returns the singular noun, e.g. "extractor".
func (k Kind) Singular() string {
	if n, ok := kinds[k]; ok {
		return n.singular
	}
	return strings.TrimSuffix(string(k), "s")
}

// Verb returns the verb form used for kind-namespaced settings, e.g. "extract".
func (k Kind) Verb() string {
	if n, ok := kinds[k]; ok {
		return n.verb
	}
	return k.Singular()
}

// String returns the plural form.
func (k Kind) String() string { return string(k) }

// ParseKind accepts either the plural or the singular spelling.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k.Validate() == nil {
		return k, nil
	}
	for kind, n := range kinds {
		if n.singular == string(k) {
			return kind, nil
		}
	}
	return "", &InvalidKindError{Value: k}
}
