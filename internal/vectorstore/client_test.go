package vectorstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 6334, cfg.Port)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
}

func TestConfigApplyDefaultsKeepsExplicit(t *testing.T) {
	cfg := Config{
		Host:         "qdrant.internal",
		Port:         7000,
		MaxRetries:   5,
		RetryBackoff: 2 * time.Second,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "qdrant.internal", cfg.Host)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid",
			config: Config{Host: "localhost", Port: 6334, MaxRetries: 3, RetryBackoff: time.Second},
		},
		{
			name:    "empty host",
			config:  Config{Port: 6334, MaxRetries: 3, RetryBackoff: time.Second},
			wantErr: true,
		},
		{
			name:    "bad port",
			config:  Config{Host: "localhost", Port: -1, MaxRetries: 3, RetryBackoff: time.Second},
			wantErr: true,
		},
		{
			name:    "port above range",
			config:  Config{Host: "localhost", Port: 70000, MaxRetries: 3, RetryBackoff: time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
