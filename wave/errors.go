// SPDX-License-Identifier: EPL-2.0

package wave

import "errors"

var (
	ErrBadRate      = errors.New("sample rate must be positive")
	ErrBadRequest   = errors.New("invalid display request")
	ErrTimeOrder    = errors.New("start time after end time")
	ErrBadSettings  = errors.New("invalid spectrogram settings")
	ErrNoCutLine    = errors.New("no cut line at that position")
	ErrResampleFail = errors.New("resampling failed")
)
