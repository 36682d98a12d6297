package compiler

import "fmt"

// CompileError is a plain synchronous error carrying a message and the
// offending AST node's ID where one is known (0 otherwise), returned directly rather
// than as a panic/recover.
type CompileError struct {
	Msg    string
	NodeID int
}

func (e CompileError) Error() string {
	if e.NodeID == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (node %d)", e.Msg, e.NodeID)
}

func errf(nodeID int, format string, args ...any) CompileError {
	return CompileError{Msg: fmt.Sprintf(format, args...), NodeID: nodeID}
}
