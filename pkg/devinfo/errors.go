package devinfo

import "errors"

// ErrAlreadyRunning is returned when a single-instance service such as
// the battery monitor or a benchmark is started twice.
var ErrAlreadyRunning = errors.New("already running")
