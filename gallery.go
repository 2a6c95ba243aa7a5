package thumbgen

import (
	"sync"

	"github.com/google/uuid"
)

// Gallery holds the images of the current run. Starting a new run discards
// the previous images, and late images from superseded runs are dropped.
type Gallery struct {
	mu     sync.Mutex
	runID  string
	images []GeneratedImage
}

// NewGallery returns an empty gallery.
func NewGallery() *Gallery {
	return &Gallery{}
}

// Begin clears the gallery and returns the id of the new current run.
// Pass it as GenerationRequest.RunID.
func (g *Gallery) Begin() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.runID = uuid.NewString()
	g.images = nil
	return g.runID
}

// Add appends img if it belongs to the current run and reports whether it
// was kept.
func (g *Gallery) Add(img GeneratedImage) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.runID == "" || img.RunID != g.runID {
		return false
	}
	g.images = append(g.images, img)
	return true
}

// Collector returns a callback suitable for RunGeneration.
func (g *Gallery) Collector() func(GeneratedImage) {
	return func(img GeneratedImage) {
		g.Add(img)
	}
}

// Remove deletes the image with the given id.
func (g *Gallery) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, img := range g.images {
		if img.ID == id {
			g.images = append(g.images[:i], g.images[i+1:]...)
			return true
		}
	}
	return false
}

// Images returns a copy of the current run's images in arrival order.
func (g *Gallery) Images() []GeneratedImage {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]GeneratedImage(nil), g.images...)
}

// RunID returns the current run id, or "" before the first Begin.
func (g *Gallery) RunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runID
}
