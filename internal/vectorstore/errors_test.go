package vectorstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			want: false,
		},
		{
			name: "unavailable",
			err:  status.Error(grpccodes.Unavailable, "connection refused"),
			want: true,
		},
		{
			name: "deadline exceeded",
			err:  status.Error(grpccodes.DeadlineExceeded, "timed out"),
			want: true,
		},
		{
			name: "resource exhausted",
			err:  status.Error(grpccodes.ResourceExhausted, "rate limited"),
			want: true,
		},
		{
			name: "aborted",
			err:  status.Error(grpccodes.Aborted, "conflict"),
			want: true,
		},
		{
			name: "not found",
			err:  status.Error(grpccodes.NotFound, "no such collection"),
			want: false,
		},
		{
			name: "invalid argument",
			err:  status.Error(grpccodes.InvalidArgument, "bad vector size"),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("something else"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientError(tt.err))
		})
	}
}

func TestIsNotFoundUnwrapsStatus(t *testing.T) {
	err := fmt.Errorf("query points: %w", status.Error(grpccodes.NotFound, "collection missing"))
	assert.True(t, isNotFound(err))
	assert.False(t, isNotFound(status.Error(grpccodes.Unavailable, "down")))
	assert.False(t, isNotFound(errors.New("plain")))
}
