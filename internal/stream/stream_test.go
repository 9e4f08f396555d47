package stream

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTemporary(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "bare overflow",
			err:  &OverflowError{},
			want: true,
		},
		{
			name: "overflow wrapped in op error",
			err:  &Error{Op: "read", Err: &OverflowError{}},
			want: true,
		},
		{
			name: "overflow wrapped twice",
			err:  fmt.Errorf("collect: %w", &Error{Op: "read", Err: &OverflowError{}}),
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("device gone"),
			want: false,
		},
		{
			name: "op error without overflow",
			err:  &Error{Op: "read", Err: errors.New("device gone")},
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTemporary(tt.err); got != tt.want {
				t.Errorf("IsTemporary(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: "start", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
	if got := err.Error(); got != "stream start failed: boom" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestInvalidHandleErrors(t *testing.T) {
	err := &Error{Op: "read", Err: ErrInvalidHandle}
	if !errors.Is(err, ErrInvalidHandle) {
		t.Error("expected errors.Is(err, ErrInvalidHandle)")
	}
}

func TestHandleString(t *testing.T) {
	h := Handle{index: 2, generation: 5}
	if got := h.String(); got != "stream(2.5)" {
		t.Errorf("unexpected handle string: %q", got)
	}
}
