package engine

import (
	"fmt"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites script source into something zygomys accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so builtins can
//     recognize keyword arguments without registering symbols;
//   - kebab-case identifiers become snake_case (min-area -> min_area), since
//     zygomys reads a hyphen as subtraction;
//   - ; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	b := []byte(source)
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(b, i)
			out.Write(b[i:j])
			i = j

		case c == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			out.Write(b[i:j])
			i = j

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix)
			out.Write(b[i+1 : j])
			out.WriteByte('"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// skipString returns the index just past the string literal starting at
// b[i]. Backslash escapes apply to double-quoted strings only.
func skipString(b []byte, i int) int {
	quote := b[i]
	j := i + 1
	for j < len(b) && b[j] != quote {
		if quote == '"' && b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Step values passed back to the script
// ---------------------------------------------------------------------------

// sexpStep lets a builtin return the step it recorded, so the REPL and
// error messages show something meaningful.
type sexpStep struct {
	step Step
}

func (s *sexpStep) SexpString(ps *zygo.PrintState) string { return s.step.String() }
func (s *sexpStep) Type() *zygo.RegisteredType            { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

// unknown returns the keyword names not in allowed, sorted.
func (a kwArgs) unknown(allowed ...string) []string {
	var out []string
	for k := range a.kw {
		if !slices.Contains(allowed, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a preprocessed keyword (:sdfx) or a plain
// string ("sdfx").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toIDs flattens integers, lists and arrays of integers into region ids.
func toIDs(args []zygo.Sexp) ([]int, error) {
	var ids []int
	for _, a := range args {
		if id, err := toInt(a); err == nil {
			ids = append(ids, id)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("expected region id or list of ids, got %T (%s)", a, a.SexpString(nil))
		}
		nested, err := toIDs(items)
		if err != nil {
			return nil, err
		}
		ids = append(ids, nested...)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// recorder collects steps and warnings during one evaluation.
type recorder struct {
	plan     *Plan
	warnings []EvalWarning
}

func (r *recorder) warn(builtin, format string, args ...any) {
	r.warnings = append(r.warnings, EvalWarning{
		Builtin: builtin,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *recorder) checkKeywords(builtin string, pa kwArgs, allowed ...string) {
	for _, k := range pa.unknown(allowed...) {
		r.warn(builtin, "unknown keyword :%s ignored", k)
	}
}

func (r *recorder) record(s Step) (zygo.Sexp, error) {
	r.plan.add(s)
	return &sexpStep{step: s}, nil
}

// registerBuiltins installs the relief builtins into env. Builtins only
// record steps; nothing is detected, classified or written during
// evaluation. Source must go through preprocessSource first so keywords
// and kebab-case names are recognized.
func registerBuiltins(env *zygo.Zlisp, r *recorder) {

	// (detect "drawing.png" :threshold 200)
	env.AddFunction("detect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r.checkKeywords("detect", pa, "threshold")
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("detect requires an image path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("detect: path: %w", err)
		}
		step := Step{Kind: StepDetect, Path: path}
		if v, ok := pa.kw["threshold"]; ok {
			th, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("detect: threshold: %w", err)
			}
			step.Threshold = &th
		}
		return r.record(step)
	})

	// (contours "ring.json")
	env.AddFunction("contours", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("contours requires a file path")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("contours: path: %w", err)
		}
		return r.record(Step{Kind: StepContours, Path: path})
	})

	// (threshold 180) (min-area 100) (cell-size 10) (height 100)
	numeric := map[string]StepKind{
		"threshold": StepThreshold,
		"min_area":  StepMinArea,
		"cell_size": StepCellSize,
		"height":    StepHeight,
	}
	for fn, kind := range numeric {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly one number, got %d arguments", kind, len(args))
			}
			v, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			return r.record(Step{Kind: kind, Value: v})
		})
	}

	// (kernel :sdfx)
	env.AddFunction("kernel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("kernel requires a backend name")
		}
		k, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("kernel: %w", err)
		}
		return r.record(Step{Kind: StepKernel, Name: k})
	})

	// (caps :base true :top false)
	env.AddFunction("caps", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r.checkKeywords("caps", pa, "base", "top")
		step := Step{Kind: StepCaps, Base: true, Top: true}
		if v, ok := pa.kw["base"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("caps: base: %w", err)
			}
			step.Base = b
		}
		if v, ok := pa.kw["top"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("caps: top: %w", err)
			}
			step.Top = b
		}
		return r.record(step)
	})

	// (enable 0 2) (disable (list 4 5))
	for fn, kind := range map[string]StepKind{"enable": StepEnable, "disable": StepDisable} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ids, err := toIDs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			if len(ids) == 0 {
				r.warn(string(kind), "no region ids given")
			}
			return r.record(Step{Kind: kind, IDs: ids})
		})
	}

	// (enable-all) (disable-all)
	for fn, kind := range map[string]StepKind{"enable_all": StepEnableAll, "disable_all": StepDisableAll} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 0 {
				return zygo.SexpNull, fmt.Errorf("%s takes no arguments", kind)
			}
			return r.record(Step{Kind: kind})
		})
	}

	// (extrude :cell 10 :height 100 :only (list 0) :out "part.stl")
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r.checkKeywords("extrude", pa, "cell", "height", "only", "out")
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("extrude takes keyword arguments only")
		}
		step := Step{Kind: StepExtrude}
		if v, ok := pa.kw["cell"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: cell: %w", err)
			}
			step.CellSize = &f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: height: %w", err)
			}
			step.Height = &f
		}
		if v, ok := pa.kw["only"]; ok {
			ids, err := toIDs([]zygo.Sexp{v})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: only: %w", err)
			}
			step.IDs = append([]int{}, ids...)
		}
		if v, ok := pa.kw["out"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: out: %w", err)
			}
			step.Path = s
		}
		return r.record(step)
	})
}
