package world

import (
	"errors"
	"fmt"
)

// FaultCode classifies a request-path failure. None of these are fatal:
// a handler that cannot complete a mutation leaves state unchanged and
// replies with a denial carrying the reason.
type FaultCode int

const (
	// FaultValidation — malformed or missing request fields.
	FaultValidation FaultCode = iota + 1
	// FaultConflict — valid request lost a race (node taken, out of stock,
	// inventory full, duplicate action). Never retried by the server.
	FaultConflict
	// FaultPolicy — distance/bounds violations; possible cheating signal.
	FaultPolicy
	// FaultNotFound — unknown npc/shop/item/floor-item id.
	FaultNotFound
)

// Fault is a denial with a human-readable reason.
type Fault struct {
	Code   FaultCode
	Reason string
}

func (f *Fault) Error() string { return f.Reason }

func Validationf(format string, args ...any) *Fault {
	return &Fault{Code: FaultValidation, Reason: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Fault {
	return &Fault{Code: FaultConflict, Reason: fmt.Sprintf(format, args...)}
}

func Policyf(format string, args ...any) *Fault {
	return &Fault{Code: FaultPolicy, Reason: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Fault {
	return &Fault{Code: FaultNotFound, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the fault code from err, or 0 for non-fault errors.
func CodeOf(err error) FaultCode {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return 0
}
