package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// GridEvent describes one step of building a restaurant grid.
type GridEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	RunID        string                 `json:"run_id,omitempty"`
	Restaurant   string                 `json:"restaurant,omitempty"`
	ImageRef     string                 `json:"image_ref,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of grid event
type EventType string

const (
	// LookupMatched when the lookup service returned a business
	LookupMatched EventType = "lookup_matched"
	// LookupNoMatch when the lookup service found nothing for the query
	LookupNoMatch EventType = "lookup_no_match"
	// LookupFailed when the lookup request itself failed
	LookupFailed EventType = "lookup_failed"
	// ImageFetched when a cell image was loaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a cell image was replaced by a placeholder
	ImageFetchFailed EventType = "image_fetch_failed"
	// GridRendered when the composite image is complete
	GridRendered EventType = "grid_rendered"
	// GridPublished when the encoded grid reached an output sink
	GridPublished EventType = "grid_published"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event GridEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event GridEvent)
}

// LoggingObserver logs grid events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles grid events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event GridEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"duration":   event.Duration.String(),
		"success":    event.Success,
	}
	if event.RunID != "" {
		fields["run_id"] = event.RunID
	}
	if event.Restaurant != "" {
		fields["restaurant"] = event.Restaurant
	}
	if event.ImageRef != "" {
		fields["image_ref"] = event.ImageRef
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case LookupMatched:
		entry.Info("Restaurant matched")
	case LookupNoMatch:
		entry.Warn("No business found, using placeholder images")
	case LookupFailed:
		entry.Error("Business lookup failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Warn("Could not load image, drawing placeholder")
	case GridRendered:
		entry.Info("Grid rendered")
	case GridPublished:
		entry.Info("Grid published")
	default:
		entry.Info("Grid event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface. Observers are called
// synchronously in subscription order.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event GridEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = RunIDFromContext(ctx)
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event GridEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Subscribe(Observer)                         {}
func (Nop) Unsubscribe(Observer)                       {}
func (Nop) NotifyObservers(context.Context, GridEvent) {}
