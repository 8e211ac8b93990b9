package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolverCollection(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		tenantID string
		want     string
	}{
		{
			name:     "standard prefix",
			prefix:   "sentiric_kb_",
			tenantID: "acme",
			want:     "sentiric_kb_acme",
		},
		{
			name:     "empty prefix",
			prefix:   "",
			tenantID: "acme",
			want:     "acme",
		},
		{
			name:     "tenant with underscores",
			prefix:   "sentiric_kb_",
			tenantID: "acme_corp_eu",
			want:     "sentiric_kb_acme_corp_eu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.prefix)
			assert.Equal(t, tt.want, r.Collection(tt.tenantID))
		})
	}
}

func TestResolverDeterministic(t *testing.T) {
	r := NewResolver("sentiric_kb_")
	first := r.Collection("tenant-1")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, r.Collection("tenant-1"))
	}
}
