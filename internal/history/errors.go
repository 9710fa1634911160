package history

import "errors"

// ErrDataUnavailable indicates the completed-task lookup failed.
// Recovered locally: the candidate is scored with empty history,
// never dropped from the pool because of it.
var ErrDataUnavailable = errors.New("history: data unavailable")
