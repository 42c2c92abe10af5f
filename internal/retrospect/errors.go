package retrospect

import "errors"

// Workflow failure conditions. The server layer maps these to stable
// response codes; they are never retried automatically.
var (
	ErrNotFound          = errors.New("NOT_FOUND")
	ErrNotATask          = errors.New("NOT_A_TASK")
	ErrTaskDetailMissing = errors.New("TASK_DETAIL_MISSING")
)
