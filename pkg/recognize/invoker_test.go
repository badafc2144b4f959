package recognize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/binsight/go-binsight/pkg/waste"
)

func TestInvokeSuccess(t *testing.T) {
	inv := NewInvoker(NewMock(), time.Second)

	res, kind := inv.Invoke(context.Background(), []byte("jpeg"))
	if kind != KindNone {
		t.Fatalf("kind = %s, want success", kind)
	}
	if res.Category != waste.Recyclable {
		t.Errorf("category = %s, want recyclable", res.Category)
	}
	if res.Confidence <= 0 {
		t.Errorf("confidence = %f, want positive", res.Confidence)
	}
}

func TestInvokeTimeoutOnStuckRecognizer(t *testing.T) {
	mock := NewMock()
	mock.RecognizeFunc = func(ctx context.Context, jpeg []byte) (Result, error) {
		<-ctx.Done() // never answers on its own
		return Result{}, ctx.Err()
	}
	inv := NewInvoker(mock, 30*time.Millisecond)

	start := time.Now()
	_, kind := inv.Invoke(context.Background(), []byte("jpeg"))
	elapsed := time.Since(start)

	if kind != KindTimeout {
		t.Fatalf("kind = %s, want timeout", kind)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("invoke blocked %v past its timeout", elapsed)
	}
}

func TestInvokeTimeoutEvenIfRecognizerIgnoresContext(t *testing.T) {
	mock := NewMock()
	mock.RecognizeFunc = func(ctx context.Context, jpeg []byte) (Result, error) {
		time.Sleep(2 * time.Second) // misbehaving implementation
		return Result{}, nil
	}
	inv := NewInvoker(mock, 30*time.Millisecond)

	start := time.Now()
	_, kind := inv.Invoke(context.Background(), []byte("jpeg"))

	if kind != KindTimeout {
		t.Fatalf("kind = %s, want timeout", kind)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("invoker must return at its own deadline, not the recognizer's")
	}
}

func TestInvokeClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"unavailable sentinel", ErrUnavailable, KindUnavailable},
		{"server error", &APIError{StatusCode: 503, Provider: "remote"}, KindUnavailable},
		{"rate limited", &APIError{StatusCode: 429, Provider: "remote"}, KindUnavailable},
		{"client error", &APIError{StatusCode: 400, Provider: "remote"}, KindModelError},
		{"no classification", ErrNoClassification, KindModelError},
		{"arbitrary failure", errors.New("boom"), KindModelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMock()
			mock.RecognizeFunc = func(ctx context.Context, jpeg []byte) (Result, error) {
				return Result{}, tt.err
			}
			inv := NewInvoker(mock, time.Second)

			if _, kind := inv.Invoke(context.Background(), []byte("jpeg")); kind != tt.want {
				t.Errorf("kind = %s, want %s", kind, tt.want)
			}
		})
	}
}

func TestInvokeEmptySnapshot(t *testing.T) {
	mock := NewMock()
	inv := NewInvoker(mock, time.Second)

	if _, kind := inv.Invoke(context.Background(), nil); kind != KindModelError {
		t.Errorf("kind = %s, want model_error for empty snapshot", kind)
	}
	if mock.CallCount() != 0 {
		t.Error("recognizer must not be called for an empty snapshot")
	}
}

func TestInvokeNoRetries(t *testing.T) {
	mock := NewMock()
	mock.RecognizeFunc = func(ctx context.Context, jpeg []byte) (Result, error) {
		return Result{}, ErrUnavailable
	}
	inv := NewInvoker(mock, time.Second)

	inv.Invoke(context.Background(), []byte("jpeg"))
	if got := mock.CallCount(); got != 1 {
		t.Errorf("recognizer called %d times, retries are forbidden", got)
	}
}
