package worker

import "errors"

// ErrUnknownJobKind is returned for jobs no engine handles.
var ErrUnknownJobKind = errors.New("unknown job kind")
