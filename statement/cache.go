package statement

import "github.com/lookbusy1344/hlasm-ls/diag"

// reparseResult is one cached (processing-form -> resolved-operands) entry.
type reparseResult struct {
	operands []Operand
	remarks  []Remark
	diags    []diag.Diagnostic
}

// Cache is attached to each statement parsed in Deferred form (§4.E). It
// memoizes the map (processing-form -> resolved-operands) and is never
// invalidated: (deferred text, form) -> operands is a pure function.
type Cache struct {
	entries map[CacheKey]reparseResult
}

// NewCache returns an empty cache for one deferred statement.
func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]reparseResult)}
}

// Get consults the cache; on a miss it invokes reparse and stores the
// result, so a macro body reparsed three times under three forms keeps
// three cached parses.
func (c *Cache) Get(key CacheKey, reparse func() ([]Operand, []Remark, []diag.Diagnostic)) ([]Operand, []Remark, []diag.Diagnostic) {
	if r, ok := c.entries[key]; ok {
		return r.operands, r.remarks, r.diags
	}
	ops, remarks, diags := reparse()
	c.entries[key] = reparseResult{operands: ops, remarks: remarks, diags: diags}
	return ops, remarks, diags
}

// Len reports how many distinct processing forms this statement has been
// reparsed under so far.
func (c *Cache) Len() int { return len(c.entries) }
