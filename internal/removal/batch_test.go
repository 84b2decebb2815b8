package removal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveBatch(t *testing.T) {
	var mu sync.Mutex
	created := map[string]string{} // job id -> source url
	nextID := 0

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/jobs":
			var body CreateJobURL
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			nextID++
			id := string(rune('a' + nextID - 1))
			created[id] = body.VideoURL
			json.NewEncoder(w).Encode(CreateJobResponse{ID: id})
		case strings.HasSuffix(r.URL.Path, "/start"):
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		case strings.HasSuffix(r.URL.Path, "/status"):
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"), "/status")
			json.NewEncoder(w).Encode(JobStatus{
				ID:                id,
				Status:            StatusCompleted,
				OutputFormat:      string(FormatStackedVideo),
				ProcessedVideoURL: "https://cdn.example.com/" + id + ".mp4",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	urls := []string{
		"https://example.com/one.mp4",
		"https://example.com/two.mp4",
		"https://example.com/three.mp4",
	}
	results, err := client.RemoveBatch(context.Background(), urls, nil, 2, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, StatusCompleted, r.Status)
		assert.NotEmpty(t, r.ProcessedVideoURL)
	}
	assert.Len(t, created, 3)
}

func TestRemoveBatchPropagatesFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"insufficient credits"}`))
	}))

	_, err := client.RemoveBatch(context.Background(), []string{"https://example.com/one.mp4"}, nil, 1, time.Millisecond)
	var credErr *InsufficientCreditsError
	require.ErrorAs(t, err, &credErr)
}
