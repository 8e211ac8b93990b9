package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "json info",
			config: Config{Level: "info", Format: "json"},
		},
		{
			name:   "console debug",
			config: Config{Level: "debug", Format: "console"},
		},
		{
			name:   "constant fields",
			config: Config{Level: "info", Format: "json", Fields: map[string]string{"service": "kq"}},
		},
		{
			name:    "bad level",
			config:  Config{Level: "loud", Format: "json"},
			wantErr: true,
		},
		{
			name:    "bad format",
			config:  Config{Level: "info", Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(&tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
