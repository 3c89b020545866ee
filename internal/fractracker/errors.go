package fractracker

import "fmt"

// IngestionError aborts a batch: no report from the run is kept.
type IngestionError struct {
	Page   int
	Status int
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch report page %d: http %d: %v", e.Page, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch report page %d: %v", e.Page, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
