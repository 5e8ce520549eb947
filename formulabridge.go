package xlcore

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/formula"
)

// errorOrder fixes the ordinal<->sentinel mapping used by the on-disk
// Error-record payload byte, matching internal/xmlio's independent copy of
// the same five fixed strings. The two copies are kept separately because
// internal/xmlio does not import internal/formula.
var errorOrder = [...]formula.ErrorSentinel{
	formula.ErrDivZero, formula.ErrName, formula.ErrValue, formula.ErrRef, formula.ErrCircular,
}

func errorCodeOf(e formula.ErrorSentinel) uint8 {
	for i, c := range errorOrder {
		if c == e {
			return uint8(i)
		}
	}
	return uint8(len(errorOrder)) // out-of-range sentinel, resolves back to ErrValue
}

func errorSentinelOf(code uint8) formula.ErrorSentinel {
	if int(code) < len(errorOrder) {
		return errorOrder[code]
	}
	return formula.ErrValue
}

// formulaKey builds the same "Sheet!A1" dependency-graph key
// internal/formula.Manager computes privately, so the workbook orchestrator
// can index its post-calculation result cache the same way.
func formulaKey(sheet string, c coord.Coordinate) formula.NodeKey {
	return formula.NodeKey(sheet + "!" + coord.CellName(c))
}

// cellValueToFormulaValue adapts a public CellValue into the evaluator's
// internal Value type, used when a formula references a cell holding a
// plain (non-formula) value.
func cellValueToFormulaValue(v CellValue) formula.Value {
	switch v.Kind {
		case KindString:
			return formula.Str(v.Str)
		case KindNumber:
			return formula.Num(v.Num)
		case KindInteger:
			return formula.Num(float64(v.Int))
		case KindBoolean:
			return formula.Bool(v.Bool)
		case KindError:
			return formula.Err(v.ErrCode)
		default:
			return formula.Empty()
	}
}

// valueToCellValue adapts an evaluator Value back into the public
// CellValue shape, for storing a formula's calculated result.
func valueToCellValue(v formula.Value) CellValue {
	switch v.Kind {
		case formula.KindString:
			return StringValue(v.Str)
		case formula.KindNumber:
			return NumberValue(v.Num)
		case formula.KindBool:
			return BoolValue(v.Bool)
		case formula.KindError:
			return ErrorValue(v.ErrVal)
		default:
			return EmptyValue()
	}
}
