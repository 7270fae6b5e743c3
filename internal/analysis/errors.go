package analysis

// Kind categorizes an analysis failure at the engine boundary.
type Kind string

const (
	// KindInvalidURL indicates the request URL failed validation
	KindInvalidURL Kind = "invalid_url"
	// KindFetch indicates the page could not be fetched; nothing was scored
	KindFetch Kind = "fetch"
	// KindPersistence indicates the result was computed but could not be
	// stored under the strict persistence policy
	KindPersistence Kind = "persistence"
	// KindCanceled indicates the caller abandoned the run after the fetch;
	// nothing was persisted
	KindCanceled Kind = "canceled"
)

// AnalysisError is the structured error returned by the orchestrator.
// It always wraps the originating cause.
type AnalysisError struct {
	// Kind categorizes the failure
	Kind Kind
	// Err is the originating error
	Err error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

// Unwrap exposes the originating error for errors.Is/As.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}
