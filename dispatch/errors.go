package dispatch

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Update-time errors
// ---------------------------------------------------------------------------

var (
	// ErrDeallocatorInUse reports a participating class whose Dealloc
	// slot is host-owned while some method still resolves method tables
	// through it.
	ErrDeallocatorInUse = errors.New("deallocator slot in use")

	// ErrHashSearchFailed reports that the perfect-hash multiplier
	// search exhausted its budget at every table size.
	ErrHashSearchFailed = errors.New("hash multiplier search failed")

	// ErrLatticeCycle reports a cycle in the class registry, which can
	// only come from malformed descriptors.
	ErrLatticeCycle = errors.New("class lattice contains a cycle")
)

// ---------------------------------------------------------------------------
// Per-call errors: the process-wide handler
// ---------------------------------------------------------------------------

// MethodErrorReason classifies a failed dispatch.
type MethodErrorReason int

const (
	// NotImplemented: no specialization applies to the argument tuple.
	NotImplemented MethodErrorReason = iota
	// AmbiguousCall: several incomparable specializations apply.
	AmbiguousCall
)

// String implements the Stringer interface.
func (r MethodErrorReason) String() string {
	switch r {
	case NotImplemented:
		return "not implemented"
	case AmbiguousCall:
		return "ambiguous call"
	}
	return fmt.Sprintf("MethodErrorReason(%d)", int(r))
}

// MethodError carries the failing method and, when the raiser knows
// them, the dynamic classes of the virtual arguments.
type MethodError struct {
	Reason MethodErrorReason
	Method *MethodInfo
	Args   []*ClassDesc
}

// Error implements the error interface.
func (e *MethodError) Error() string {
	msg := fmt.Sprintf("dispatch: %s: %s", e.Method.Name, e.Reason)
	for i, a := range e.Args {
		if i == 0 {
			msg += " ("
		} else {
			msg += ", "
		}
		msg += a.Name
	}
	if len(e.Args) > 0 {
		msg += ")"
	}
	return msg
}

// ErrorHandler is the process-wide hook invoked by error thunks. A
// handler that returns lets the thunk return a zero value to the caller.
type ErrorHandler func(*MethodError)

// The default handler aborts: failed dispatch is a programming error
// unless the host says otherwise.
func defaultErrorHandler(e *MethodError) {
	panic(e)
}

var errorHandler atomic.Pointer[ErrorHandler]

func init() {
	h := ErrorHandler(defaultErrorHandler)
	errorHandler.Store(&h)
}

// SetErrorHandler atomically replaces the process-wide handler and
// returns the previous one. Passing nil restores the default.
func SetErrorHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = defaultErrorHandler
	}
	old := errorHandler.Swap(&h)
	return *old
}

// Raise builds a MethodError and runs it through the current handler.
// Error thunks call this with the classes they know about, which may be
// none.
func Raise(mi *MethodInfo, reason MethodErrorReason, args ...*ClassDesc) {
	(*errorHandler.Load())(&MethodError{Reason: reason, Method: mi, Args: args})
}
