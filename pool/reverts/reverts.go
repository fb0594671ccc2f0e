// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was reverted.
type Kind int

const (
	// Precondition covers insufficient balances, bad inputs and access control.
	Precondition Kind = iota
	// Arithmetic covers overflow, underflow and division by zero.
	Arithmetic
	// Collaborator covers failures reported by the upstream venue.
	Collaborator
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Arithmetic:
		return "arithmetic"
	case Collaborator:
		return "collaborator"
	default:
		return "unknown"
	}
}

type ErrRevert struct {
	kind    Kind
	message string
	cause   error
}

// New returns a precondition revert.
func New(message string) *ErrRevert {
	return &ErrRevert{kind: Precondition, message: message}
}

func Newf(format string, args ...any) *ErrRevert {
	return New(fmt.Sprintf(format, args...))
}

func NewArithmetic(message string, cause error) *ErrRevert {
	return &ErrRevert{kind: Arithmetic, message: message, cause: cause}
}

func NewCollaborator(message string, cause error) *ErrRevert {
	return &ErrRevert{kind: Collaborator, message: message, cause: cause}
}

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ErrRevert) Unwrap() error {
	return e.cause
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// Is matches sentinel reverts by kind and message, so wrapped copies still
// satisfy errors.Is(err, ErrInsufficientDeposit).
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	if !ok {
		return false
	}
	return t.kind == e.kind && t.message == e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the first revert in err's chain.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return 0, false
}
