package renderfarm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/renders", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var input repository.RenderInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "youtube-video-card", input.CompositionID)
		assert.Equal(t, "vp8", input.Codec)
		assert.Equal(t, "Mon titre.webm", input.FileName)

		_, _ = w.Write([]byte(`{"renderId":"r-1","bucketName":"bucket-a"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/v1", "secret")
	require.NoError(t, err)

	handle, err := client.StartRender(t.Context(), repository.RenderInput{
		CompositionID: "youtube-video-card",
		Theme:         model.DefaultTheme(),
		VideoDetails:  model.VideoMetadata{Title: "Mon titre"},
		Codec:         "vp8",
		FileName:      "Mon titre.webm",
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", handle.RenderID)
	assert.Equal(t, "bucket-a", handle.BucketName)
}

func TestGetProgress(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.RenderSnapshot
	}{
		{
			name: "in progress",
			body: `{"done":false,"overallProgress":0.42}`,
			want: model.RenderSnapshot{OverallProgress: 0.42},
		},
		{
			name: "done",
			body: `{"done":true,"overallProgress":1,"outputFile":"https://cdn/out.webm","outputSizeInBytes":2048}`,
			want: model.RenderSnapshot{Done: true, OverallProgress: 1, OutputURL: "https://cdn/out.webm", OutputSize: 2048},
		},
		{
			name: "fatal keeps the first error message",
			body: `{"fatalErrorEncountered":true,"errors":[{"message":"Out of memory"},{"message":"other"}]}`,
			want: model.RenderSnapshot{Fatal: true, ErrorMessage: "Out of memory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/renders/bucket-a/r-1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, "")
			require.NoError(t, err)
			snapshot, err := client.GetProgress(t.Context(), "bucket-a", "r-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *snapshot)
		})
	}
}

func TestStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such render", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	require.NoError(t, err)
	_, err = client.GetProgress(t.Context(), "bucket-a", "missing")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, statusErr.NotFound())
	assert.Equal(t, "no such render", statusErr.Body)
}

func TestParseBaseURL(t *testing.T) {
	_, err := parseBaseURL("  ")
	assert.Error(t, err)

	u, err := parseBaseURL("render.internal:8080?x=1")
	require.NoError(t, err)
	assert.Equal(t, "http://render.internal:8080", u.String())
}
