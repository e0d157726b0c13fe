package selector

import "errors"

// ErrStaleSelection is returned when selecting a candidate that is not
// currently included. Re-read the filtered view and retry.
var ErrStaleSelection = errors.New("candidate is not currently included")
