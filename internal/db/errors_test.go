package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestIsUnavailable(t *testing.T) {
	dialRefused := &net.OpError{
		Op: "dial", Net: "tcp",
		Err: errors.New("connect: connection refused"),
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrUnavailable, true},
		{"wrapped sentinel", fmt.Errorf("ping: %w", ErrUnavailable), true},
		{"net op error", dialRefused, true},
		{"net error inside op wrapper", &Error{Op: OpHGetAll, Err: dialRefused}, true},
		{"message only", errors.New("ioredis: connection reset by peer"), true},
		{"query error", errors.New("Syntax error at offset 4"), false},
		{"key not found", ErrKeyNotFound, false},
		{"caller cancellation", context.Canceled, false},
		{"caller deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailable(tt.err); got != tt.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
