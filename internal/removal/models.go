package removal

import (
	"fmt"

	"github.com/videobgremover/videobgremover-go/internal/compose"
)

// TransparentFormat names the delivery formats the service can produce.
type TransparentFormat string

const (
	FormatWebMVP9      TransparentFormat = "webm_vp9"
	FormatMOVProRes    TransparentFormat = "mov_prores"
	FormatPNGSequence  TransparentFormat = "png_sequence"
	FormatProBundle    TransparentFormat = "pro_bundle"
	FormatStackedVideo TransparentFormat = "stacked_video"
)

// Job states reported by the service.
const (
	StatusCreated    = "created"
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CreateJobFile asks for an upload slot for a local file.
type CreateJobFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// CreateJobURL asks the service to fetch the source itself.
type CreateJobURL struct {
	VideoURL string `json:"video_url"`
}

// CreateJobResponse is the service's answer to either create request.
type CreateJobResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url,omitempty"`
}

// BackgroundOptions selects what replaces the removed background.
type BackgroundOptions struct {
	Type              string            `json:"type"`
	Color             string            `json:"color,omitempty"`
	TransparentFormat TransparentFormat `json:"transparent_format,omitempty"`
}

// StartJobRequest configures processing for an uploaded job.
type StartJobRequest struct {
	Format     string             `json:"format"`
	Model      string             `json:"model,omitempty"`
	Background *BackgroundOptions `json:"background,omitempty"`
	WebhookURL string             `json:"webhook_url,omitempty"`
}

// JobStatus is the service's view of one job.
type JobStatus struct {
	ID                      string             `json:"id"`
	Status                  string             `json:"status"`
	Filename                string             `json:"filename"`
	CreatedAt               string             `json:"created_at"`
	LengthSeconds           float64            `json:"length_seconds,omitempty"`
	ThumbnailURL            string             `json:"thumbnail_url,omitempty"`
	TransparentThumbnailURL string             `json:"transparent_thumbnail_url,omitempty"`
	ProcessedVideoURL       string             `json:"processed_video_url,omitempty"`
	ProcessedMaskURL        string             `json:"processed_mask_url,omitempty"`
	Message                 string             `json:"message,omitempty"`
	Background              *BackgroundOptions `json:"background,omitempty"`
	OutputFormat            string             `json:"output_format,omitempty"`
	ExportID                string             `json:"export_id,omitempty"`
}

// CreditBalance is the account's credit state.
type CreditBalance struct {
	UserID           string  `json:"user_id"`
	TotalCredits     float64 `json:"total_credits"`
	RemainingCredits float64 `json:"remaining_credits"`
	UsedCredits      float64 `json:"used_credits"`
}

// Foreground converts a completed job into a compositable source. The
// service delivers stacked output with color on top and the matte below.
func (s *JobStatus) Foreground(info compose.SourceInfo) (*compose.Foreground, error) {
	if s.Status != StatusCompleted {
		return nil, fmt.Errorf("job %s is %s, not completed", s.ID, s.Status)
	}
	if s.ProcessedVideoURL == "" {
		return nil, fmt.Errorf("job %s has no processed video", s.ID)
	}
	switch TransparentFormat(s.OutputFormat) {
	case FormatWebMVP9, FormatMOVProRes:
		return compose.NewNativeAlphaForeground(s.ProcessedVideoURL, info)
	case FormatProBundle:
		if s.ProcessedMaskURL == "" {
			return nil, fmt.Errorf("job %s is a pro bundle but has no mask", s.ID)
		}
		return compose.NewSeparateMaskForeground(s.ProcessedVideoURL, s.ProcessedMaskURL, info)
	case FormatStackedVideo, "":
		return compose.NewStackedForeground(s.ProcessedVideoURL, compose.TopBottom, compose.ColorFirst, info)
	}
	return nil, fmt.Errorf("job %s has unsupported output format %q", s.ID, s.OutputFormat)
}
