package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name                  string
		timeout               time.Duration
		expectedHeaderTimeout time.Duration
	}{
		{"long timeout caps header wait", time.Minute, 20 * time.Second},
		{"short timeout bounds header wait", 5 * time.Second, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewHTTPClient(tt.timeout)
			assert.Equal(t, tt.timeout, c.Timeout)

			tr, ok := c.Transport.(*http.Transport)
			require.True(t, ok)
			assert.Equal(t, tt.expectedHeaderTimeout, tr.ResponseHeaderTimeout)
			assert.Equal(t, 16, tr.MaxIdleConnsPerHost)
			assert.NotNil(t, tr.Proxy)
		})
	}
}
