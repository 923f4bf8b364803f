package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/observer"

	"github.com/google/uuid"
)

// ContentType of every published grid.
const ContentType = "image/png"

// Publisher stores an encoded grid under key and reports where it went.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, key string, data []byte) (string, error)
}

// ObjectKey returns "<prefix><id>.png", generating a random id when id is
// empty.
func ObjectKey(prefix, id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + id + ".png"
}

// FilePublisher writes the grid to a fixed path on disk.
type FilePublisher struct {
	path string
}

func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

func (f *FilePublisher) Name() string { return "file" }

// Publish ignores key; the output path is fixed at construction.
func (f *FilePublisher) Publish(ctx context.Context, _ string, data []byte) (string, error) {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", apperrors.NewInternalError("failed to create output directory", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return "", apperrors.NewInternalError("failed to write "+f.path, err)
	}
	return f.path, nil
}

// Result is the outcome of one sink.
type Result struct {
	Sink     string `json:"sink"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Multi fans a grid out to several publishers.
type Multi struct {
	publishers []Publisher
	events     observer.Subject
}

func NewMulti(events observer.Subject, publishers ...Publisher) *Multi {
	if events == nil {
		events = observer.Nop{}
	}
	return &Multi{publishers: publishers, events: events}
}

// Publishers returns the configured sinks in order.
func (m *Multi) Publishers() []Publisher {
	return append([]Publisher(nil), m.publishers...)
}

// Len returns the number of configured sinks.
func (m *Multi) Len() int {
	return len(m.publishers)
}

// Publish sends data to every sink, even after one fails. The returned
// error joins all sink failures.
func (m *Multi) Publish(ctx context.Context, key string, data []byte) ([]Result, error) {
	results := make([]Result, 0, len(m.publishers))
	var errs []error

	for _, p := range m.publishers {
		start := time.Now()
		location, err := p.Publish(ctx, key, data)

		event := observer.GridEvent{
			EventType: observer.GridPublished,
			Duration:  time.Since(start),
			Success:   err == nil,
			Metadata: map[string]interface{}{
				"sink":     p.Name(),
				"location": location,
				"bytes":    len(data),
			},
		}
		result := Result{Sink: p.Name(), Location: location}
		if err != nil {
			event.ErrorMessage = err.Error()
			result.Error = err.Error()
			errs = append(errs, err)
		}
		m.events.NotifyObservers(ctx, event)
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}
