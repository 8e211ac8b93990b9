package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentiric/knowledge-query-service/internal/config"
)

func TestEmbedderBuilderHonorsCanceledContext(t *testing.T) {
	b := newBuilders(config.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A canceled context short-circuits before the model load starts.
	_, err := b.Embedder(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitDone(t *testing.T) {
	closed := make(chan struct{})
	close(closed)
	assert.True(t, waitDone(closed, time.Millisecond))

	// A channel that never closes does not block past the timeout.
	assert.False(t, waitDone(make(chan struct{}), 10*time.Millisecond))
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(nil, nil)
	assert.Error(t, err)
}
