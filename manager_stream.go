package thumbgen

import (
	"context"

	"github.com/google/uuid"
)

// Run is an orchestration run in progress.
type Run struct {
	id     string
	images chan GeneratedImage
	done   chan struct{}

	result []GeneratedImage
	err    error
}

// ID returns the run identifier carried by every image the run emits.
func (r *Run) ID() string {
	return r.id
}

// Images yields each successful image as it completes. The channel is
// closed when the run ends.
func (r *Run) Images() <-chan GeneratedImage {
	return r.images
}

// Wait blocks until the run ends and returns the same result RunGeneration
// would have returned.
func (r *Run) Wait() ([]GeneratedImage, error) {
	<-r.done
	return r.result, r.err
}

// Stream starts a run in the background. Reading Images is optional; the
// run never blocks on an unread channel.
func (m *Manager) Stream(ctx context.Context, req *GenerationRequest) *Run {
	m.mu.RLock()
	buffer := m.maxCount
	m.mu.RUnlock()

	run := &Run{
		images: make(chan GeneratedImage, buffer),
		done:   make(chan struct{}),
	}

	var r GenerationRequest
	if req != nil {
		r = *req
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	run.id = r.RunID

	go func() {
		defer close(run.done)
		defer close(run.images)

		var reqPtr *GenerationRequest
		if req != nil {
			reqPtr = &r
		}
		run.result, run.err = m.RunGeneration(ctx, reqPtr, func(img GeneratedImage) {
			run.images <- img
		})
	}()

	return run
}
