package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsConfigurationError(t *testing.T) {
	if !IsConfigurationError(fmt.Errorf("base url: %w", ErrMissingConfiguration)) {
		t.Error("wrapped ErrMissingConfiguration should be a configuration error")
	}
	if IsConfigurationError(ErrStoreClosed) {
		t.Error("ErrStoreClosed should not be a configuration error")
	}
}

func TestIsStorageError(t *testing.T) {
	err := &FrameworkError{Op: "memory.Get", Kind: "memory", ID: "cart", Err: ErrStoreClosed}
	if !IsStorageError(err) {
		t.Error("FrameworkError wrapping ErrStoreClosed should be a storage error")
	}
	if IsStorageError(ErrConnectionFailed) {
		t.Error("ErrConnectionFailed should not be a storage error")
	}
}

func TestFrameworkError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FrameworkError
		want string
	}{
		{
			name: "op with id",
			err:  &FrameworkError{Op: "memory.Set", ID: "cart", Err: ErrStoreClosed},
			want: "memory.Set [cart]: store closed",
		},
		{
			name: "op without id",
			err:  &FrameworkError{Op: "config.Validate", Err: ErrInvalidConfiguration},
			want: "config.Validate: invalid configuration",
		},
		{
			name: "message only",
			err:  &FrameworkError{Message: "bad things"},
			want: "bad things",
		},
		{
			name: "kind only",
			err:  &FrameworkError{Kind: "memory"},
			want: "memory error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameworkError_Unwrap(t *testing.T) {
	err := &FrameworkError{Op: "memory.Get", Kind: "memory", Err: ErrStoreUnavailable}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("errors.Is should find the wrapped sentinel")
	}

	var fe *FrameworkError
	if !errors.As(fmt.Errorf("outer: %w", err), &fe) {
		t.Fatal("errors.As should find FrameworkError through wrapping")
	}
	if fe.Kind != "memory" {
		t.Errorf("Kind = %q, want memory", fe.Kind)
	}
}
