package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"argument", &ArgumentError{Name: "data"}, ErrInvalidArgument},
		{"type", &TypeError{Type: "chan int", Expected: "storage type"}, ErrInvalidType},
		{"operation", &OperationError{Op: "table name", Message: "interface"}, ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("saving: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range []error{ErrInvalidArgument, ErrInvalidType, ErrInvalidOperation} {
				if other != tt.sentinel {
					assert.False(t, errors.Is(wrapped, other))
				}
			}
		})
	}
}

func TestNilArgument(t *testing.T) {
	err := NilArgument("data")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, `invalid argument "data": must not be nil`, err.Error())
}

func TestArgumentErrorWithoutMessage(t *testing.T) {
	err := &ArgumentError{Name: "name"}
	assert.Equal(t, `invalid argument "name"`, err.Error())
}
