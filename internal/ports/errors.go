package ports

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	// ErrReferenced reports a write that would orphan or point at a missing row.
	ErrReferenced = errors.New("referenced record")
)
