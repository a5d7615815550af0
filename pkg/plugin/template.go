// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Segment kinds.
const (
	SegmentLiteral SegmentKind = iota
	SegmentVarRef
)

// ErrInvalidTemplate is the sentinel error wrapped by InvalidTemplateError.
var ErrInvalidTemplate = errors.New("invalid command template")

var varNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type (
	// SegmentKind tags a Segment as literal text or a variable reference.
	SegmentKind int

	// Segment is one piece of an argument.
	Segment struct {
		Kind SegmentKind
		// Value is the literal text or the referenced variable name.
		Value string
	}

	// Arg is a single argv entry built from one or more segments, so that
	// "--path=$DIR/out" stays one argument.
	Arg []Segment

	// Template is an ordered argument list.
	Template []Arg

	// InvalidTemplateError reports template text that cannot be used as argv.
	InvalidTemplateError struct {
		Text   string
		Reason string
	}
)

// Literal returns a literal segment.
func Literal(s string) Segment { return Segment{Kind: SegmentLiteral, Value: s} }

// VarRef returns a variable reference segment.
func VarRef(name string) Segment { return Segment{Kind: SegmentVarRef, Value: name} }

// Error implements the error interface.
func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid command template %q: %s", e.Text, e.Reason)
}

// Unwrap returns ErrInvalidTemplate so callers can use errors.Is for programmatic detection.
func (e *InvalidTemplateError) Unwrap() error { return ErrInvalidTemplate }

// ParseTemplate splits shell-like text into a Template.
//
// Words are separated by unquoted blanks. Single quotes keep their content
// literal, double quotes allow $VAR references, and backslash escapes work
// as in a POSIX shell. $VAR and ${VAR} are the only expansions accepted;
// command substitution, arithmetic, globbing operators, redirections and
// multiple statements are rejected.
func ParseTemplate(text string) (Template, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, &InvalidTemplateError{Text: text, Reason: err.Error()}
	}
	if len(file.Stmts) == 0 {
		return Template{}, nil
	}
	if len(file.Stmts) > 1 {
		return nil, &InvalidTemplateError{Text: text, Reason: "must be a single command"}
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Negated || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, &InvalidTemplateError{Text: text, Reason: "redirections and job control are not supported"}
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, &InvalidTemplateError{Text: text, Reason: "must be a plain argument list"}
	}
	if len(call.Assigns) > 0 {
		return nil, &InvalidTemplateError{Text: text, Reason: "variable assignments are not supported; use the command env instead"}
	}

	tpl := make(Template, 0, len(call.Args))
	for _, word := range call.Args {
		arg, err := wordArg(word)
		if err != nil {
			return nil, &InvalidTemplateError{Text: text, Reason: err.Error()}
		}
		tpl = append(tpl, arg)
	}
	return tpl, nil
}

func wordArg(word *syntax.Word) (Arg, error) {
	var arg Arg
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			arg = arg.appendLiteral(unescape(p.Value, false))
		case *syntax.SglQuoted:
			if p.Dollar {
				return nil, errors.New("$'...' quoting is not supported")
			}
			arg = arg.appendLiteral(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return nil, errors.New(`$"..." quoting is not supported`)
			}
			if len(p.Parts) == 0 {
				arg = arg.appendLiteral("")
			}
			for _, inner := range p.Parts {
				switch ip := inner.(type) {
				case *syntax.Lit:
					arg = arg.appendLiteral(unescape(ip.Value, true))
				case *syntax.ParamExp:
					ref, err := paramRef(ip)
					if err != nil {
						return nil, err
					}
					arg = append(arg, ref)
				default:
					return nil, fmt.Errorf("unsupported expansion inside double quotes at %s", inner.Pos())
				}
			}
		case *syntax.ParamExp:
			ref, err := paramRef(p)
			if err != nil {
				return nil, err
			}
			arg = append(arg, ref)
		default:
			return nil, fmt.Errorf("unsupported expansion at %s", part.Pos())
		}
	}
	return arg, nil
}

func paramRef(p *syntax.ParamExp) (Segment, error) {
	if p.Excl || p.Length || p.Width || p.Index != nil || p.Slice != nil || p.Repl != nil || p.Names != 0 || p.Exp != nil {
		return Segment{}, fmt.Errorf("only $VAR and ${VAR} references are supported, got %q at %s", p.Param.Value, p.Pos())
	}
	if !varNamePattern.MatchString(p.Param.Value) {
		return Segment{}, fmt.Errorf("%q is not an environment variable name", p.Param.Value)
	}
	return VarRef(p.Param.Value), nil
}

// appendLiteral merges adjacent literals so "a""b" is a single segment.
func (a Arg) appendLiteral(s string) Arg {
	if n := len(a); n > 0 && a[n-1].Kind == SegmentLiteral {
		a[n-1].Value += s
		return a
	}
	return append(a, Literal(s))
}

// unescape removes shell backslash escapes. Inside double quotes only
// \$, \`, \", \\ and line continuations are escapes.
func unescape(s string, dquoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !dquoted || strings.IndexByte("$`\"\\", next) >= 0:
			b.WriteByte(next)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// References returns the variable names the template refers to, in order of
// first appearance.
func (t Template) References() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, arg := range t {
		for _, seg := range arg {
			if seg.Kind == SegmentVarRef && !seen[seg.Value] {
				seen[seg.Value] = true
				refs = append(refs, seg.Value)
			}
		}
	}
	return refs
}

// Expand substitutes every reference from env. The first reference missing
// from env is returned as missing together with a nil slice.
func (t Template) Expand(env map[string]string) (args []string, missing string) {
	args = make([]string, 0, len(t))
	for _, arg := range t {
		var b strings.Builder
		for _, seg := range arg {
			if seg.Kind == SegmentLiteral {
				b.WriteString(seg.Value)
				continue
			}
			v, ok := env[seg.Value]
			if !ok {
				return nil, seg.Value
			}
			b.WriteString(v)
		}
		args = append(args, b.String())
	}
	return args, ""
}

// String renders the template back to text with references in $VAR form.
func (t Template) String() string {
	words := make([]string, 0, len(t))
	for _, arg := range t {
		var b strings.Builder
		for _, seg := range arg {
			if seg.Kind == SegmentVarRef {
				b.WriteString("${" + seg.Value + "}")
				continue
			}
			b.WriteString(seg.Value)
		}
		words = append(words, b.String())
	}
	return strings.Join(words, " ")
}
