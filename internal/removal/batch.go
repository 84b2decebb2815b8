package removal

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RemoveBatch runs several URL-sourced videos through the service
// concurrently and waits for all of them. Results are returned in input
// order. The first failure cancels the remaining jobs' waits.
func (c *Client) RemoveBatch(ctx context.Context, videoURLs []string, req *StartJobRequest, concurrency int, pollInterval time.Duration) ([]*JobStatus, error) {
	if concurrency <= 0 {
		concurrency = 2
	}
	results := make([]*JobStatus, len(videoURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, videoURL := range videoURLs {
		i, videoURL := i, videoURL
		g.Go(func() error {
			job, err := c.CreateJobFromURL(ctx, videoURL)
			if err != nil {
				return err
			}
			if err := c.StartJob(ctx, job.ID, req); err != nil {
				return err
			}
			status, err := c.Wait(ctx, job.ID, pollInterval, func(s string) {
				c.logger.Debug().Str("job", job.ID).Str("status", s).Msg("batch job")
			})
			if err != nil {
				return err
			}
			results[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
