package types

// CallEdge records one call expression. The callee is intentionally left
// unresolved (a raw simple name) so cross-file name-based joins can happen
// at query time instead of during extraction (spec §3).
type CallEdge struct {
	Caller       Name // interned scoped name of the enclosing function/method
	CalleeName   string
	Location     Location
	IsMethodCall bool
}

// ImportInfo records one import/use statement.
type ImportInfo struct {
	Path       string
	LocalName  string
	IsGlob     bool
	Location   Location
	FileID     FileID
}
