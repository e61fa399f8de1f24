package lower

import "errors"

// ErrInternal reports input the type checker should have rejected: mixed
// class and union arms, unknown pattern nodes, unresolved names.
var ErrInternal = errors.New("lower: internal invariant violated")
