package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilityGenerateImage(t *testing.T) {
	var prompt, format string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		prompt = r.FormValue("prompt")
		format = r.FormValue("output_format")

		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	p := NewStabilityProvider("key", srv.URL, srv.Client())
	uri, err := p.GenerateImage(context.Background(), "a cat")
	require.NoError(t, err)

	assert.Equal(t, "a cat", prompt)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, "data:image/jpeg;base64,anBlZ2J5dGVz", uri)
}

func TestStabilityDefaultPrompt(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		prompt = r.FormValue("prompt")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	p := NewStabilityProvider("key", srv.URL, srv.Client())
	_, err := p.GenerateImage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "An empty image", prompt)
}

func TestStabilityUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["prompt too long"]}`))
	}))
	defer srv.Close()

	p := NewStabilityProvider("key", srv.URL, srv.Client())
	_, err := p.GenerateImage(context.Background(), "x")
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "prompt too long")
}

func TestStabilityMissingKey(t *testing.T) {
	p := NewStabilityProvider("", "", nil)
	assert.False(t, p.Configured())

	_, err := p.GenerateImage(context.Background(), "x")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
