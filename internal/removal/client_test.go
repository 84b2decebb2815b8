package removal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videobgremover/videobgremover-go/internal/compose"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(zerolog.Nop(), "test-key", srv.URL)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(zerolog.Nop(), "", "")
	require.Error(t, err)
}

func TestCreateJobFromURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/jobs", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body CreateJobURL
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/video.mp4", body.VideoURL)

		json.NewEncoder(w).Encode(CreateJobResponse{ID: "job-1"})
	}))

	job, err := client.CreateJobFromURL(context.Background(), "https://example.com/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
			},
		},
		{
			name:   "insufficient credits",
			status: http.StatusPaymentRequired,
			body:   `{"error":"insufficient credits"}`,
			check: func(t *testing.T, err error) {
				var credErr *InsufficientCreditsError
				require.ErrorAs(t, err, &credErr)
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var nfErr *JobNotFoundError
				require.ErrorAs(t, err, &nfErr)
			},
		},
		{
			name:   "processing failure",
			status: http.StatusUnprocessableEntity,
			body:   `{"error":"processing failed for this video"}`,
			check: func(t *testing.T, err error) {
				var procErr *ProcessingError
				require.ErrorAs(t, err, &procErr)
				assert.Contains(t, procErr.Message, "processing failed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			_, err := client.Status(context.Background(), "job-1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestWaitPollsUntilCompleted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		status := JobStatus{ID: "job-1", Status: StatusProcessing}
		if n >= 3 {
			status.Status = StatusCompleted
			status.OutputFormat = string(FormatStackedVideo)
			status.ProcessedVideoURL = "https://cdn.example.com/out.mp4"
		}
		json.NewEncoder(w).Encode(status)
	}))

	var seen []string
	status, err := client.Wait(context.Background(), "job-1", time.Millisecond, func(s string) {
		seen = append(seen, s)
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, []string{StatusProcessing}, seen, "callback fires once per distinct state")
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitFailedJob(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JobStatus{ID: "job-1", Status: StatusFailed, Message: "no foreground detected"})
	}))

	_, err := client.Wait(context.Background(), "job-1", time.Millisecond, nil)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "job-1", procErr.JobID)
	assert.Contains(t, procErr.Message, "no foreground detected")
}

func TestStatusSurfacesContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JobStatus{ID: "job-1", Status: StatusProcessing})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Status(ctx, "job-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "cancellation must survive the transport error path")
}

func TestWaitHonorsCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JobStatus{ID: "job-1", Status: StatusProcessing})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Wait(ctx, "job-1", 10*time.Millisecond, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCredits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/credits", r.URL.Path)
		json.NewEncoder(w).Encode(CreditBalance{UserID: "u1", TotalCredits: 100, RemainingCredits: 40, UsedCredits: 60})
	}))

	balance, err := client.Credits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.0, balance.RemainingCredits)
}

func TestJobStatusForeground(t *testing.T) {
	info := compose.SourceInfo{Width: 1920, Height: 2160, FPS: 30, Duration: 10}

	t.Run("stacked delivery", func(t *testing.T) {
		s := &JobStatus{
			ID: "job-1", Status: StatusCompleted,
			OutputFormat:      string(FormatStackedVideo),
			ProcessedVideoURL: "https://cdn.example.com/out.mp4",
		}
		fg, err := s.Foreground(info)
		require.NoError(t, err)
		assert.Equal(t, "stacked", fg.Encoding.Kind())
	})

	t.Run("pro bundle needs mask", func(t *testing.T) {
		s := &JobStatus{
			ID: "job-1", Status: StatusCompleted,
			OutputFormat:      string(FormatProBundle),
			ProcessedVideoURL: "https://cdn.example.com/rgb.mp4",
		}
		_, err := s.Foreground(info)
		require.Error(t, err)

		s.ProcessedMaskURL = "https://cdn.example.com/alpha.mp4"
		fg, err := s.Foreground(info)
		require.NoError(t, err)
		assert.Equal(t, "separate-mask", fg.Encoding.Kind())
	})

	t.Run("incomplete job refuses", func(t *testing.T) {
		s := &JobStatus{ID: "job-1", Status: StatusProcessing}
		_, err := s.Foreground(info)
		require.Error(t, err)
	})
}
