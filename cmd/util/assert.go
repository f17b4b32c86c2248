package util

import (
	"fmt"

	"go.uber.org/zap"
)

// Assert exits the program when err is not nil, logging it under the message
// given by format and v.
func Assert(err error, format string, v ...interface{}) {
	if err != nil {
		zap.S().Fatalw(fmt.Sprintf(format, v...), zap.Error(err))
	}
}

// Warning logs err under the message given by format and v. It returns true
// when err is not nil.
func Warning(err error, format string, v ...interface{}) bool {
	if err == nil {
		return false
	}
	zap.S().Warnw(fmt.Sprintf(format, v...), zap.Error(err))
	return true
}

// Verbosef logs a progress message at debug level.
func Verbosef(format string, v ...interface{}) {
	zap.S().Debugf(format, v...)
}
