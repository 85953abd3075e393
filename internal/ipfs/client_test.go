package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/QmGood":
			w.Write([]byte(`{"title":"Water Well","description":"desc","milestones":[{"title":"Dig","description":"Dig the well"}]}`))
		case "/QmMissing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := New(config.IpfsConfig{Gateway: server.URL, Timeout: 2})

	metadata, err := client.Fetch(context.Background(), "QmGood")
	require.NoError(t, err)
	assert.Equal(t, "Water Well", metadata.Title)
	require.Len(t, metadata.Milestones, 1)
	assert.Equal(t, "Dig the well", metadata.Milestones[0].Description)

	_, err = client.Fetch(context.Background(), "QmMissing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Fetch(context.Background(), "QmBroken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetchEmptyCid(t *testing.T) {
	client := New(config.IpfsConfig{Gateway: "http://localhost:0"})

	_, err := client.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v0/add", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"Name":"metadata.json","Hash":"QmUploaded","Size":"42"}`))
	}))
	defer server.Close()

	client := New(config.IpfsConfig{ApiUrl: server.URL, Timeout: 2})

	cid, err := client.Put(context.Background(), []byte(`{"title":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "QmUploaded", cid)
}
