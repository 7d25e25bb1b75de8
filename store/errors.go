// SPDX-License-Identifier: EPL-2.0

package store

import "errors"

var (
	ErrOutOfRange      = errors.New("sample range outside sequence")
	ErrBadFormat       = errors.New("unsupported sample format")
	ErrNotPending      = errors.New("range does not cover pending blocks exactly")
	ErrMissingBlock    = errors.New("missing backing block")
	ErrFormatMismatch  = errors.New("sequence formats differ")
	ErrInvalidArgument = errors.New("invalid argument")
)
