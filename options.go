package xlcore

import "github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"

// WorkbookOptions configures a new Workbook.
type WorkbookOptions struct {
	// MemoryCeiling bounds total arena allocation across every sheet's cell
	// store. Zero uses
	// cellstore.DefaultCeiling.
	MemoryCeiling int64
	// StringPoolCeiling bounds the workbook-scoped string pool in bytes.
	// Zero means unlimited.
	StringPoolCeiling int
	// Workers sizes the work-stealing pool backing parallel save/load
	// tasks. Zero (the default) runs a single worker.
	Workers int
	// AutoCalculate mirrors formula.CalculationOptions.AutoCalculate,
	// applied to every sheet's formula manager at AddSheet time.
	AutoCalculate bool
	// Date1904 selects the 1904 date system instead of 1900.
	Date1904 bool
}

// DefaultWorkbookOptions returns the options a bare NewWorkbook() uses.
func DefaultWorkbookOptions() WorkbookOptions {
	return WorkbookOptions{
		MemoryCeiling: cellstore.DefaultCeiling,
		AutoCalculate: true,
	}
}

// OpenOptions configures Load.
type OpenOptions struct {
	// MemoryCeiling overrides WorkbookOptions.MemoryCeiling for the loaded
	// workbook. Zero keeps the default.
	MemoryCeiling int64
}

// SaveOptions configures Save.
type SaveOptions struct {
	// DeflateLevel is passed to the ZIP writer per entry. Zero uses DefaultDeflateLevel.
	DeflateLevel int
	// Parallel launches one XML-generation task per sheet through the
	// workbook's scheduler instead of serialising sheets one at a time.
	Parallel bool
}

// DefaultDeflateLevel is the save-time compression level absent an
// explicit SaveOptions.DeflateLevel.
const DefaultDeflateLevel = 6

// DefaultSaveOptions returns the options a bare Save(w) uses.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{DeflateLevel: DefaultDeflateLevel, Parallel: true}
}
