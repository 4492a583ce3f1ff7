package meter

import (
	"errors"
	"fmt"
)

// ErrAdjustmentTooLarge is matched by errors.Is against any rejected adjustment.
var ErrAdjustmentTooLarge = errors.New("adjustment too large")

// ValidationKind enumerates rate-limiter rejections.
type ValidationKind string

const AdjustmentTooLarge ValidationKind = "AdjustmentTooLarge"

// ValidationError reports a rejected adjustment. Its message is shown to users as-is.
type ValidationError struct {
	Kind  ValidationKind
	Delta float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Maximum adjustment is ±%s", formatValue(e.Max))
}

// Is lets errors.Is(err, ErrAdjustmentTooLarge) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrAdjustmentTooLarge && e.Kind == AdjustmentTooLarge
}
