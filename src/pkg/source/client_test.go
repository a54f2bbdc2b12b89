package source

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-report/src/pkg/prices"
)

const ckanBody = `{"success":true,"result":{"records":[
	{"fecha_vigencia":"2024-03-09 10:00:00","producto":"Nafta","empresa":"A","idempresa":"1","precio":"1000"},
	{"fecha_vigencia":"2024-03-09 11:00:00","producto":"Diesel","empresa":"B","idempresa":"2","precio":"900"}
]}}`

func newTestClient(url string) *Client {
	cfg := DefaultValueConfig()
	cfg.URL = url
	return NewClient(cfg)
}

func TestClient_Fetch(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.URL.RawQuery)
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(ckanBody))
		}))
		defer server.Close()

		dataset, e := newTestClient(server.URL).Fetch(context.Background())

		require.Nil(t, e)
		assert.Equal(t, prices.EnvelopeResultRecords, dataset.Envelope)
		require.Len(t, dataset.Records, 2)
		assert.Equal(t, "Nafta", dataset.Records[0].Product)
	})

	t.Run("api key is sent when configured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		client.APIKey = "secret"
		_, e := client.Fetch(context.Background())
		require.Nil(t, e)
	})

	t.Run("non success status is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"maintenance"}`))
		}))
		defer server.Close()

		_, e := newTestClient(server.URL).Fetch(context.Background())

		require.NotNil(t, e)
		assert.True(t, errors.Is(e.Err, ErrUpstreamFetch))
		assert.Contains(t, e.ErrStr, "503")
		assert.Contains(t, e.Context, "maintenance")
	})

	t.Run("unreachable host is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, e := newTestClient(url).Fetch(context.Background())

		require.NotNil(t, e)
		assert.True(t, errors.Is(e.Err, ErrUpstreamFetch))
	})

	t.Run("unexpected shape is an empty dataset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"help":"nothing to see"}`))
		}))
		defer server.Close()

		dataset, e := newTestClient(server.URL).Fetch(context.Background())

		require.Nil(t, e)
		assert.Equal(t, prices.EnvelopeNone, dataset.Envelope)
		assert.Empty(t, dataset.Records)
	})
}

func TestClient_FetchCompressed(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"gzip": func(raw []byte) []byte {
			var buffer bytes.Buffer
			writer := gzip.NewWriter(&buffer)
			_, _ = writer.Write(raw)
			_ = writer.Close()
			return buffer.Bytes()
		},
		"deflate": func(raw []byte) []byte {
			var buffer bytes.Buffer
			writer, _ := flate.NewWriter(&buffer, flate.DefaultCompression)
			_, _ = writer.Write(raw)
			_ = writer.Close()
			return buffer.Bytes()
		},
		"br": func(raw []byte) []byte {
			var buffer bytes.Buffer
			writer := brotli.NewWriter(&buffer)
			_, _ = writer.Write(raw)
			_ = writer.Close()
			return buffer.Bytes()
		},
	}

	for encoding, encode := range encoders {
		t.Run(encoding, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(encode([]byte(ckanBody)))
			}))
			defer server.Close()

			dataset, e := newTestClient(server.URL).Fetch(context.Background())

			require.Nil(t, e)
			assert.Len(t, dataset.Records, 2)
		})
	}
}

func TestClient_FetchCorruptCompressedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte(ckanBody))
	}))
	defer server.Close()

	dataset, e := newTestClient(server.URL).Fetch(context.Background())

	require.NotNil(t, e)
	assert.ErrorIs(t, e.Err, ErrUpstreamFetch)
	assert.Equal(t, "Failed to read response body", e.Msg)
	assert.Empty(t, dataset.Records)
}
