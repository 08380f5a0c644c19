// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"github.com/luxfi/log"
)

// Default is the package-wide fallback logger used by components that
// accept an optional logger (margin search, comparison runs, the bench
// harness) but are not given one explicitly.
var Default log.Logger = NewNoOpLogger()

// OrDefault returns l if non-nil, else Default. Components that take a
// logger as a constructor argument should never have to nil-check it
// themselves.
func OrDefault(l log.Logger) log.Logger {
	if l == nil {
		return Default
	}
	return l
}
