package worker

import "fmt"

// JobError represents an error that occurred while decoding one source
type JobError struct {
	Source string // Vendor of the source being decoded
	Stage  string // The stage where the error occurred
	Err    error  // Original error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func NewJobError(source, stage string, err error) error {
	return &JobError{
		Source: source,
		Stage:  stage,
		Err:    err,
	}
}
