package httplimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderExtractor(t *testing.T) {
	extractor := NewHeaderExtractor("X-Api-Key", "X-Tenant")

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Api-Key", "abc")
	request.Header.Set("X-Tenant", "acme")

	key, err := extractor.Extract(request)
	assert.Nil(t, err)
	assert.Equal(t, "abc-acme", key)

	request.Header.Del("X-Tenant")
	_, err = extractor.Extract(request)
	assert.NotNil(t, err)
}

func TestRemoteAddrExtractor(t *testing.T) {
	extractor := NewRemoteAddrExtractor()

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.1.2.3:4567"

	key, err := extractor.Extract(request)
	assert.Nil(t, err)
	assert.Equal(t, "10.1.2.3", key)

	request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	key, err = extractor.Extract(request)
	assert.Nil(t, err)
	assert.Equal(t, "203.0.113.9", key)
}
