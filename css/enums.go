package css

//go:generate go tool go-enum --marshal

// Branch position within a conditional chain.
// ENUM(if, elseif, else)
type BranchKind int
