package observer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-lowlight-vision/pkg/models"
)

// EventType represents the type of pipeline run event
type EventType string

const (
	// RunStarted when a pipeline run begins
	RunStarted EventType = "run_started"
	// StageAdvanced when the orchestrator enters a new stage
	StageAdvanced EventType = "stage_advanced"
	// RunCompleted when a run finishes successfully
	RunCompleted EventType = "run_completed"
	// RunFailed when a run aborts
	RunFailed EventType = "run_failed"
)

// RunEvent describes one pipeline lifecycle or progress event.
type RunEvent struct {
	EventType    EventType             `json:"event_type"`
	RunID        string                `json:"run_id"`
	Timestamp    time.Time             `json:"timestamp"`
	Progress     *models.ProgressEvent `json:"progress,omitempty"`
	ElapsedMs    int64                 `json:"elapsed_ms"`
	ErrorMessage string                `json:"error_message,omitempty"`
}

// Observer receives pipeline run events.
type Observer interface {
	OnEvent(event RunEvent)
	GetObserverName() string
}

// Subject publishes run events to subscribed observers.
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(event RunEvent)
}

// LoggingObserver logs pipeline run events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles run events by logging them
func (o *LoggingObserver) OnEvent(event RunEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"run_id":     event.RunID,
		"elapsed_ms": event.ElapsedMs,
	}
	if event.Progress != nil {
		fields["stage"] = event.Progress.Stage
		fields["progress"] = event.Progress.Progress
		if event.Progress.CurrentImage != "" {
			fields["current_image"] = event.Progress.CurrentImage
		}
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	switch event.EventType {
	case RunStarted:
		o.logger.WithFields(fields).Info("Pipeline run started")
	case StageAdvanced:
		o.logger.WithFields(fields).Debug("Pipeline stage advanced")
	case RunCompleted:
		o.logger.WithFields(fields).Info("Pipeline run completed")
	case RunFailed:
		o.logger.WithFields(fields).Error("Pipeline run failed")
	default:
		o.logger.WithFields(fields).Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver aggregates run counters and timings
type MetricsObserver struct {
	mu            sync.RWMutex
	totalRuns     int64
	completedRuns int64
	failedRuns    int64
	totalRunTime  time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles run events by updating counters
func (o *MetricsObserver) OnEvent(event RunEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RunStarted:
		o.totalRuns++
	case RunCompleted:
		o.completedRuns++
		o.totalRunTime += time.Duration(event.ElapsedMs) * time.Millisecond
	case RunFailed:
		o.failedRuns++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgRunTime := time.Duration(0)
	if o.completedRuns > 0 {
		avgRunTime = o.totalRunTime / time.Duration(o.completedRuns)
	}
	return map[string]interface{}{
		"total_runs":     o.totalRuns,
		"completed_runs": o.completedRuns,
		"failed_runs":    o.failedRuns,
		"total_run_time": o.totalRunTime.String(),
		"avg_run_time":   avgRunTime.String(),
	}
}

// EventPublisher implements the Subject interface. Observers are notified
// synchronously in subscription order so per-run event streams stay ordered.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0)}
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
func (p *EventPublisher) NotifyObservers(event RunEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(event)
		}(obs)
	}
}
