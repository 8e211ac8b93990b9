package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentiric/knowledge-query-service/internal/metrics"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
)

func TestConfigAddr(t *testing.T) {
	cfg := Config{Host: "0.0.0.0", Port: 17021}
	assert.Equal(t, "0.0.0.0:17021", cfg.Addr())
}

func TestNewServerPlaintext(t *testing.T) {
	svc := NewService(&fakeSearcher{}, readiness.NewState(), 3, 20, zap.NewNop())
	srv, err := NewServer(svc, metrics.New("test"), zap.NewNop(), Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(nil, metrics.New("test"), zap.NewNop(), Config{})
	assert.Error(t, err)
}

func TestNewServerBadCertPath(t *testing.T) {
	svc := NewService(&fakeSearcher{}, readiness.NewState(), 3, 20, zap.NewNop())
	_, err := NewServer(svc, metrics.New("test"), zap.NewNop(), Config{
		CertFile: "/nonexistent/server.crt",
		KeyFile:  "/nonexistent/server.key",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
}
