package ocr

import "fmt"

// EngineError reports a failed or unavailable recognition engine. Engine
// failure is fatal to the extraction call; there is no partial-result
// fallback.
type EngineError struct {
	Engine Source
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recognition engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineError wraps err with the engine that produced it.
func NewEngineError(engine Source, err error) *EngineError {
	return &EngineError{Engine: engine, Err: err}
}
