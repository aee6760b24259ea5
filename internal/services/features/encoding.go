package features

// Categorical columns encoded into the feature vector, in schema order.
const (
	ColItemID  = "item_id"
	ColDeptID  = "dept_id"
	ColCatID   = "cat_id"
	ColStoreID = "store_id"
	ColStateID = "state_id"
)

// Encoding maps categorical identifier strings to the integer codes the
// regressor was trained with. It is fit once at training time, persisted
// with the model artifact, and read-only afterwards; the same string always
// maps to the same code for the lifetime of a trained model.
type Encoding struct {
	tables map[string]map[string]int
}

// NewEncoding wraps persisted encoder tables keyed by column name.
func NewEncoding(tables map[string]map[string]int) *Encoding {
	if tables == nil {
		tables = map[string]map[string]int{}
	}
	return &Encoding{tables: tables}
}

// Code returns the integer code for a column value. Values never seen at
// training time encode to 0 rather than erroring, so inference on new items
// degrades instead of failing.
func (e *Encoding) Code(column, value string) int {
	table, ok := e.tables[column]
	if !ok {
		return 0
	}
	code, ok := table[value]
	if !ok {
		return 0
	}
	return code
}

// Size returns the number of known values for a column.
func (e *Encoding) Size(column string) int {
	return len(e.tables[column])
}
