// Package expression implements the Expression Engine: compiles
// and evaluates user-authored expressions over a stream plus the Stream
// Context's expression view, for inclusion/exclusion predicates and additive
// scoring. Built on gopkg.in/Knetic/govaluate.v3.
package expression

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	govaluate "gopkg.in/Knetic/govaluate.v3"
)

// CompileError is the structured error raised when an expression fails to
// compile, carrying the offending expression text.
type CompileError struct {
	Expression string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("expression: failed to compile %q: %v", e.Expression, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compiled is a compiled, cached expression ready for repeated evaluation.
type Compiled struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// Source returns the original, un-rewritten expression text.
func (c *Compiled) Source() string { return c.source }

var wordAnd = regexp.MustCompile(`(?i)\band\b`)
var wordOr = regexp.MustCompile(`(?i)\bor\b`)
var wordNot = regexp.MustCompile(`(?i)\bnot\b`)
var seadexCall = regexp.MustCompile(`\bseadex\(\s*\)`)

// dottedRef matches a dotted field reference like stream.parsedFile.resolution.
// govaluate resolves an unbracketed dotted identifier as a struct accessor,
// which fails against the flat parameter maps this engine evaluates over, so
// every dotted chain is bracket-escaped into a single flat parameter name
// (the evaluator's parameter maps carry those dotted keys; see
// pipeline.StreamParams).
var dottedRef = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+`)

// rewrite translates word-form boolean operators (and/or/not), the zero-arg
// seadex() predicate, and dotted field references into govaluate-native
// syntax. seadex() has no arguments to evaluate against, so it's rewritten
// to an equality check against a synthetic boolean parameter the evaluator
// injects per stream, selecting streams tagged as SeaDex-listed. Quoted
// string literals pass through untouched.
func rewrite(src string) string {
	var out strings.Builder
	for i := 0; i < len(src); {
		if src[i] == '\'' || src[i] == '"' {
			end := closingQuote(src, i)
			out.WriteString(src[i:end])
			i = end
			continue
		}
		next := nextQuote(src, i)
		out.WriteString(rewriteCode(src[i:next]))
		i = next
	}
	return out.String()
}

func rewriteCode(seg string) string {
	seg = wordAnd.ReplaceAllString(seg, "&&")
	seg = wordOr.ReplaceAllString(seg, "||")
	seg = wordNot.ReplaceAllString(seg, "!")
	seg = seadexCall.ReplaceAllString(seg, "__seadex_is_seadex == true")
	return dottedRef.ReplaceAllStringFunc(seg, func(m string) string {
		return "[" + m + "]"
	})
}

// closingQuote returns the index just past the string literal opening at
// start, honoring backslash escapes. An unterminated literal runs to the end
// of the source; the compiler reports the syntax error.
func closingQuote(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(src)
}

func nextQuote(src string, start int) int {
	for i := start; i < len(src); i++ {
		if src[i] == '\'' || src[i] == '"' {
			return i
		}
	}
	return len(src)
}

// engineFunctions are the helper predicates registered into every compiled
// expression. List membership needs no helper: govaluate reserves "in" as
// its native comparator ("resolution in ('1080p', '2160p')", "'HDR' in
// stream.parsedFile.visualTags"), which also means a function named "in"
// could never be reached.
var engineFunctions = map[string]govaluate.ExpressionFunction{
	"exists": func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return false, nil
		}
		return args[0] != nil, nil
	},
	"istrue": func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return false, nil
		}
		b, ok := args[0].(bool)
		return ok && b, nil
	},
	"isfalse": func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return true, nil
		}
		b, ok := args[0].(bool)
		return ok && !b, nil
	},
	"contains": func(args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return false, nil
		}
		haystack, ok1 := args[0].(string)
		needle, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return false, nil
		}
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
	},
}

// Compile parses expr into a reusable Compiled expression. Compile failures
// are reported as *CompileError; callers treat a failed compile as an empty
// (always-false) predicate for that stage and continue.
func Compile(expr string) (*Compiled, error) {
	rewritten := rewrite(expr)
	ge, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, engineFunctions)
	if err != nil {
		return nil, &CompileError{Expression: expr, Err: err}
	}
	return &Compiled{source: expr, expr: ge}, nil
}

// Evaluate runs the compiled expression against params: a flat map whose
// keys are the context's bare field names plus dotted stream-field names
// ("stream.parsedFile.resolution"), which the rewriter bracket-escapes so
// govaluate treats each dotted chain as a single parameter lookup (see
// pipeline.StreamParams). Fields with no value are present rather than
// absent (context fields as an explicit nil, stream fields as a zero
// value), so references resolve instead of erroring.
func (c *Compiled) Evaluate(params map[string]interface{}) (interface{}, error) {
	return c.expr.Evaluate(params)
}

// EvaluateBool runs the compiled expression and coerces its result to a
// boolean predicate outcome. Non-boolean results (e.g. a stray numeric
// expression) are treated as false.
func (c *Compiled) EvaluateBool(params map[string]interface{}) (bool, error) {
	v, err := c.Evaluate(params)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	return ok && b, nil
}

// EvaluateNumber runs the compiled expression and coerces its result to a
// float64, used by the ranked-expression precompute.
func (c *Compiled) EvaluateNumber(params map[string]interface{}) (float64, error) {
	v, err := c.Evaluate(params)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, nil
	}
}

// Engine compiles and caches expressions by source text, avoiding repeated
// parse cost across requests.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*Compiled
	errs  map[string]error
}

// NewEngine constructs an empty compilation cache.
func NewEngine() *Engine {
	return &Engine{cache: map[string]*Compiled{}, errs: map[string]error{}}
}

// Get returns the cached compilation of expr, compiling and caching it (or
// its failure) on first use.
func (e *Engine) Get(expr string) (*Compiled, error) {
	e.mu.RLock()
	if c, ok := e.cache[expr]; ok {
		e.mu.RUnlock()
		return c, nil
	}
	if err, ok := e.errs[expr]; ok {
		e.mu.RUnlock()
		return nil, err
	}
	e.mu.RUnlock()

	c, err := Compile(expr)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.errs[expr] = err
		return nil, err
	}
	e.cache[expr] = c
	return c, nil
}

// Select returns the subset of items for which expr evaluates true, using
// buildParams to project each item (plus shared context) into the flat
// parameter map the evaluator consumes. Compile failures are logged by the
// caller and treated as selecting nothing.
func Select[T any](e *Engine, items []T, expr string, buildParams func(T) map[string]interface{}) ([]T, error) {
	c, err := e.Get(expr)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, evalErr := c.EvaluateBool(buildParams(item))
		if evalErr != nil {
			continue
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}
