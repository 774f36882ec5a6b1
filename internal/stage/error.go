package stage

import "fmt"

// Error reports which stage failed for which product. It unwraps to the
// stage's own error so sentinel checks keep working.
type Error struct {
	Stage     string
	ProductID string
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("stage %s failed for product %s: %v", e.Stage, e.ProductID, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
