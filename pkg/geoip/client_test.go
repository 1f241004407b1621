package geoip

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookupPrivateIPsSkipNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call for %s", r.URL.Path)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, LocalDevelopment, client.Lookup("192.168.1.5"))
	assert.Equal(t, LocalDevelopment, client.Lookup("127.0.0.1"))
	assert.Equal(t, LocalDevelopment, client.Lookup("10.0.0.12"))
	assert.Equal(t, LocalDevelopment, client.Lookup("172.16.4.2"))
	assert.Equal(t, LocalDevelopment, client.Lookup("::1"))
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","city":"Mountain View","regionName":"California","country":"United States"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, "Mountain View, California, United States", client.Lookup("8.8.8.8"))
}

func TestLookupPartialFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","country":"Germany"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, "Germany", client.Lookup("8.8.8.8"))
}

func TestLookupAPIFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, UnknownLocation, client.Lookup("8.8.8.8"))
}

func TestLookupNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, UnknownLocation, client.Lookup("8.8.8.8"))
}

func TestLookupMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	assert.Equal(t, UnknownLocation, client.Lookup("8.8.8.8"))
}

func TestLookupTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 50*time.Millisecond)

	assert.Equal(t, UnknownLocation, client.Lookup("8.8.8.8"))
}

func TestLookupUnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 100*time.Millisecond)

	assert.Equal(t, UnknownLocation, client.Lookup("8.8.8.8"))
}
