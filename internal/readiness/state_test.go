package readiness

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		model      bool
		index      bool
		wantReady  bool
		wantStatus Status
	}{
		{
			name:       "neither ready",
			model:      false,
			index:      false,
			wantReady:  false,
			wantStatus: StatusInitializing,
		},
		{
			name:       "only model ready",
			model:      true,
			index:      false,
			wantReady:  false,
			wantStatus: StatusInitializing,
		},
		{
			name:       "only index ready",
			model:      false,
			index:      true,
			wantReady:  false,
			wantStatus: StatusInitializing,
		},
		{
			name:       "both ready",
			model:      true,
			index:      true,
			wantReady:  true,
			wantStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.SetModelReady(tt.model)
			s.SetIndexReady(tt.index)

			assert.Equal(t, tt.wantReady, s.IsReady())
			assert.Equal(t, tt.wantStatus, s.Status())

			model, index := s.Snapshot()
			assert.Equal(t, tt.model, model)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestStateUnhealthyAfterDegrade(t *testing.T) {
	s := NewState()
	s.SetModelReady(true)
	s.SetIndexReady(true)
	assert.Equal(t, StatusHealthy, s.Status())

	// A probe finding the index gone flips the state to unhealthy, not back
	// to initializing.
	s.SetIndexReady(false)
	assert.False(t, s.IsReady())
	assert.Equal(t, StatusUnhealthy, s.Status())

	s.SetIndexReady(true)
	assert.Equal(t, StatusHealthy, s.Status())
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState()
	s.SetModelReady(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s.SetIndexReady(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_ = s.IsReady()
				_ = s.Status()
			}
		}()
	}
	wg.Wait()

	s.SetIndexReady(true)
	assert.True(t, s.IsReady())
}
