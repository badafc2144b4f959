// Package recognize wraps the expensive recognition step behind a
// uniform call-with-timeout contract. Implementations are pluggable:
// a remote vision API, a local ONNX classifier, or a mock.
package recognize

import (
	"context"

	"github.com/binsight/go-binsight/pkg/waste"
)

// Result is one successful recognition.
type Result struct {
	// Label is the raw classifier class name.
	Label string

	// Category is the disposal stream the label maps to.
	Category waste.Category

	// Confidence is in [0, 1].
	Confidence float64
}

// Recognizer classifies one frame snapshot.
type Recognizer interface {
	// Recognize classifies the JPEG snapshot. Implementations must
	// honor ctx cancellation.
	Recognize(ctx context.Context, jpeg []byte) (Result, error)

	// Close releases resources.
	Close() error
}
