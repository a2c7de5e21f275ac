// Package engine provides the Lisp evaluation engine for meshup.
// It wraps zygomys in a sandboxed environment, exposes the meshup
// constructors and operations as builtins, and produces a scene.Scene
// from user source code.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chazu/meshup/pkg/meshup"
	"github.com/chazu/meshup/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or a scene
// validation error.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	Part    string
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Scene    *scene.Scene
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the evaluation produced an exportable scene.
func (r EvalResult) OK() bool {
	return r.Scene != nil && len(r.Errors) == 0
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation. Non-positive
// values keep EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine wraps the zygomys interpreter for meshup evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh scene for determinism.
type Engine struct {
	sess    *meshup.Session
	log     *log.Logger
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine whose scripts build geometry in sess.
func NewEngine(sess *meshup.Session, opts ...Option) *Engine {
	e := &Engine{
		sess:    sess,
		log:     sess.Logger().WithPrefix("engine"),
		timeout: EvalTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new Scene.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate bounded by ctx as well as the engine
// timeout. A cancelled evaluation keeps running in the background and
// its result is discarded.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	start := time.Now()
	sc, evalErrs, err := waitWithTimeout(ctx, ch, gen, &e.mu, &e.generation, e.timeout)
	e.log.Debug("evaluation finished", "generation", gen, "elapsed", time.Since(start), "errors", len(evalErrs), "fatal", err)
	return sc, evalErrs, err
}

// Run evaluates source and validates the resulting scene. Validation
// errors are reported as EvalErrors; validation warnings as EvalWarnings.
func (e *Engine) Run(ctx context.Context, source string) (EvalResult, error) {
	sc, evalErrs, err := e.EvaluateContext(ctx, source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Scene: sc, Errors: evalErrs}
	if sc == nil {
		return res, nil
	}

	v := scene.ValidateAll(sc)
	for _, ve := range v.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, Part: w.Part})
		e.log.Warn(w.Message, "part", w.Part)
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	sc := scene.New(e.sess)

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return sc, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, sc)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	val, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// A script without part declarations exports its final value.
	if sc.Len() == 0 {
		addValue(sc, "main", val)
	}
	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(strings.Replace(msg, m[0], m[2], 1)),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
