// Package engine evaluates relief batch scripts. A script is zygomys Lisp
// whose builtins (detect, min-area, disable, extrude, ...) record a Plan of
// session actions; a Runner later applies the plan to a session. The split
// keeps evaluation sandboxed: scripts never touch the filesystem directly.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
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

// EvalWarning is a non-fatal remark about a builtin call, for example an
// unknown keyword argument.
type EvalWarning struct {
	Builtin string
	Message string
}

func (w EvalWarning) String() string {
	return w.Builtin + ": " + w.Message
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Plan     *Plan
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs script source and returns the plan it recorded.
//
// Return semantics:
//   - On success: plan (possibly with warnings) + nil errors + nil error
//   - On parse/eval failure: nil plan + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
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

		res := e.evaluate(source)
		ch <- evalResult{result: res}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	// Empty source is a valid script with nothing to do.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Plan: NewPlan()}
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	rec := &recorder{plan: NewPlan()}
	registerBuiltins(env, rec)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err), Warnings: rec.warnings}
	}

	return &EvalResult{Plan: rec.plan, Warnings: rec.warnings}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
