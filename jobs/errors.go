package jobs

import "errors"

var ErrJobPanicked = errors.New("job panicked")
