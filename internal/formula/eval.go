package formula

import (
	"math"
	"strings"
	"time"
)

// Resolver resolves a cell reference to its current Value, used during
// evaluation to dereference operands. defaultSheet names the sheet the formula itself lives on;
// implementations must use it whenever ref.Sheet == "". Implementations
// live above this package (the workbook orchestrator), which is why
// formula does not import cellstore directly.
type Resolver interface {
	ResolveCell(defaultSheet string, ref Reference) Value
}

// clockFunc is overridable for tests; NOW()/TODAY() otherwise call
// time.Now(). No serial-date conversion here; that belongs to the
// out-of-scope number-format renderer.
var clockFunc = time.Now

// evalCtx threads the resolver and the formula's own sheet through
// recursive Eval calls, since a bare "A1" reference must resolve against
// whichever sheet the formula was written on.
type evalCtx struct {
	res Resolver
	sheet string
}

// Eval walks the AST and produces a Value, routing arithmetic type
// mismatches to #VALUE! and division by zero to #DIV/0!.
// sheet is the name of the sheet the formula itself lives on.
func Eval(e *expr, sheet string, res Resolver) Value {
	return eval(e, &evalCtx{res: res, sheet: sheet})
}

func eval(e *expr, ctx *evalCtx) Value {
	if e == nil {
		return Empty()
	}
	switch e.kind {
		case exprNumber:
			return Num(e.num)
		case exprString:
			return Str(e.str)
		case exprBool:
			return Bool(e.b)
		case exprRef:
			return ctx.res.ResolveCell(ctx.sheet, e.ref)
		case exprRange:
			// A bare range outside an aggregate function has no single scalar
			// value; surface #VALUE! rather than silently picking a corner.
			return Err(ErrValue)
		case exprUnary:
			v := eval(e.args[0], ctx)
			if v.Kind == KindError {
				return v
			}
			n, ok := v.AsFloat()
			if !ok {
				return Err(ErrValue)
			}
			return Num(-n)
		case exprBinary:
			return evalBinary(e, ctx)
		case exprCall:
			return evalCall(e, ctx)
	}
	return Err(ErrValue)
}

func evalBinary(e *expr, ctx *evalCtx) Value {
	l := eval(e.args[0], ctx)
	if l.Kind == KindError {
		return l
	}
	r := eval(e.args[1], ctx)
	if r.Kind == KindError {
		return r
	}
	lf, lok := l.AsFloat()
	rf, rok := r.AsFloat()
	if !lok || !rok {
		return Err(ErrValue)
	}
	switch e.op {
		case tokPlus:
			return Num(lf + rf)
		case tokMinus:
			return Num(lf - rf)
		case tokStar:
			return Num(lf * rf)
		case tokSlash:
			if rf == 0 {
				return Err(ErrDivZero)
			}
			return Num(lf / rf)
	}
	return Err(ErrValue)
}

// rangeValues flattens every cell of every Reference argument of a call
// into a flat Value slice, expanding ranges into their constituent cells.
func rangeValues(args []*expr, ctx *evalCtx) []Value {
	var out []Value
	for _, a := range args {
		if a.kind == exprRef || a.kind == exprRange {
			for _, c := range a.ref.Cells() {
				single := Reference{Sheet: a.ref.Sheet, Cell: c}
				out = append(out, ctx.res.ResolveCell(ctx.sheet, single))
			}
			continue
		}
		out = append(out, eval(a, ctx))
	}
	return out
}

func evalCall(e *expr, ctx *evalCtx) Value {
	switch e.name {
		case "SUM", "AVERAGE", "MAX", "MIN", "COUNT":
			return evalAggregate(e, ctx)
		case "IF":
			return evalIf(e, ctx)
		case "CONCATENATE":
			var b strings.Builder
			for _, a := range e.args {
				v := eval(a, ctx)
				if v.Kind == KindError {
					return v
				}
				b.WriteString(v.String())
			}
			return Str(b.String())
		case "LEN":
			if len(e.args) != 1 {
				return Err(ErrValue)
			}
			v := eval(e.args[0], ctx)
			if v.Kind == KindError {
				return v
			}
			return Num(float64(len([]rune(v.String()))))
		case "ROUND":
			if len(e.args) != 2 {
				return Err(ErrValue)
			}
			v := eval(e.args[0], ctx)
			d := eval(e.args[1], ctx)
			vn, ok1 := v.AsFloat()
			dn, ok2 := d.AsFloat()
			if !ok1 || !ok2 {
				return Err(ErrValue)
			}
			mult := math.Pow(10, dn)
			return Num(math.Round(vn*mult) / mult)
		case "NOW":
			return Num(timeToSerial(clockFunc()))
		case "TODAY":
			now := clockFunc()
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			return Num(timeToSerial(midnight))
	}
	return Err(ErrName)
}

// timeToSerial converts a time to the classic 1900-based spreadsheet date
// serial (days since 1899-12-30), matching Excel's default date system; the
// 1904 date system switch only affects
// display/rendering and is out of this evaluator's scope.
func timeToSerial(t time.Time) float64 {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	d := t.Sub(epoch)
	return d.Hours() / 24
}

func evalIf(e *expr, ctx *evalCtx) Value {
	if len(e.args) < 2 || len(e.args) > 3 {
		return Err(ErrValue)
	}
	cond := eval(e.args[0], ctx)
	var truthy bool
	switch cond.Kind {
		case KindBool:
			truthy = cond.Bool
		case KindNumber:
			truthy = cond.Num != 0
		case KindError:
			return cond
		default:
			return Err(ErrValue)
	}
	if truthy {
		return eval(e.args[1], ctx)
	}
	if len(e.args) == 3 {
		return eval(e.args[2], ctx)
	}
	return Bool(false)
}

func evalAggregate(e *expr, ctx *evalCtx) Value {
	vals := rangeValues(e.args, ctx)
	sum := 0.0
	count := 0
	max := math.Inf(-1)
	min := math.Inf(1)
	for _, v := range vals {
		if v.Kind == KindError {
			return v
		}
		n, ok := v.AsFloat()
		if !ok {
			if v.Kind == KindEmpty {
				continue // empty cells are skipped by aggregates, not errors
			}
			return Err(ErrValue)
		}
		sum += n
		count++
		if n > max {
			max = n
		}
		if n < min {
			min = n
		}
	}
	switch e.name {
		case "SUM":
			return Num(sum)
		case "COUNT":
			return Num(float64(count))
		case "AVERAGE":
			if count == 0 {
				return Err(ErrDivZero)
			}
			return Num(sum / float64(count))
		case "MAX":
			if count == 0 {
				return Num(0)
			}
			return Num(max)
		case "MIN":
			if count == 0 {
				return Num(0)
			}
			return Num(min)
	}
	return Err(ErrName)
}
