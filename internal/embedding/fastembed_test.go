package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFastEmbedProviderRejectsUnknownModel(t *testing.T) {
	_, err := NewFastEmbedProvider(FastEmbedConfig{Model: "not-a-real/model"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestModelDimensions(t *testing.T) {
	// Every supported friendly name has a known dimension.
	for name, model := range modelMapping {
		dim, ok := modelDimensions[model]
		assert.True(t, ok, "model %s has no dimension entry", name)
		assert.Greater(t, dim, 0)
	}
}
