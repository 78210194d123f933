// Copyright (c) 2024 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrAddressNotFound indicates that an address being looked up by the
	// address manager does not exist.
	ErrAddressNotFound = ErrorKind("ErrAddressNotFound")

	// ErrUnknownAddressType indicates that an address type cannot be
	// determined from a network address' raw bytes or textual form.
	ErrUnknownAddressType = ErrorKind("ErrUnknownAddressType")

	// ErrMismatchedAddressType indicates that a claimed address type does
	// not match the type derived from the address' raw bytes.
	ErrMismatchedAddressType = ErrorKind("ErrMismatchedAddressType")

	// ErrInvalidAddressFormat indicates that a textual network address is
	// malformed.  This includes strings with embedded NUL characters,
	// since classification must cover the entire supplied string rather
	// than a truncated view of it.
	ErrInvalidAddressFormat = ErrorKind("ErrInvalidAddressFormat")

	// ErrUnsubnettableNetwork indicates an attempt to construct a subnet
	// over a network that does not support subnetting, such as an onion
	// or internal address.
	ErrUnsubnettableNetwork = ErrorKind("ErrUnsubnettableNetwork")

	// ErrMismatchedSubnetFamily indicates that the netmask of a subnet
	// belongs to a different network family than its base address.
	ErrMismatchedSubnetFamily = ErrorKind("ErrMismatchedSubnetFamily")

	// ErrNonContiguousMask indicates a netmask whose bit pattern has one
	// bits after zero bits.
	ErrNonContiguousMask = ErrorKind("ErrNonContiguousMask")

	// ErrInvalidPrefixLength indicates a subnet prefix length that is
	// negative or exceeds the bit width of the base address network.
	ErrInvalidPrefixLength = ErrorKind("ErrInvalidPrefixLength")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to the address manager.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
