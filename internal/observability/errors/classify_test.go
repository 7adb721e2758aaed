package errors

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/target/admin-console/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", apperrors.NotFound("missing"), "not_found"},
		{"wrapped app error", fmt.Errorf("ctx: %w", apperrors.Store(context.Canceled, "load")), "store"},
		{"plain pointer type", fmt.Errorf("outer: %w", &customErr{}), "errors_customerr"},
		{"context", context.DeadlineExceeded, "context_deadlineexceedederror"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
