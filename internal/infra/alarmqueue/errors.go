package alarmqueue

import "errors"

var (
	ErrInvalidAlarm      = errors.New("invalid alarm data")
	ErrConcurrentUpdate  = errors.New("pending alarm set changed concurrently")
	ErrDispatcherRunning = errors.New("dispatcher already running")
)
