package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jalh2/healthyubackend/internal/messaging"
)

// PublishedEvent is one message captured by RecordingPublisher.
type PublishedEvent struct {
	RoutingKey string
	RawJSON    []byte
}

// RecordingPublisher keeps published events in memory instead of sending
// them to RabbitMQ.
type RecordingPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

var _ messaging.PublisherInterface = (*RecordingPublisher)(nil)

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish marshals the event the way the broker publisher does.
func (p *RecordingPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{RoutingKey: routingKey, RawJSON: raw})
	return nil
}

func (p *RecordingPublisher) Close() error {
	return nil
}

// Keys returns routing keys in publish order.
func (p *RecordingPublisher) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.RoutingKey
	}
	return keys
}

func (p *RecordingPublisher) CountByKey(routingKey string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, e := range p.events {
		if e.RoutingKey == routingKey {
			count++
		}
	}
	return count
}

// DecodeLast unmarshals the most recent event with routingKey into target.
func (p *RecordingPublisher) DecodeLast(t *testing.T, routingKey string, target interface{}) {
	t.Helper()

	p.mu.RLock()
	defer p.mu.RUnlock()

	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].RoutingKey == routingKey {
			if err := json.Unmarshal(p.events[i].RawJSON, target); err != nil {
				t.Fatalf("Failed to decode %s event: %v", routingKey, err)
			}
			return
		}
	}
	t.Fatalf("Expected event with routing key '%s' to be published, but found none", routingKey)
}

// AssertEventCount asserts the exact number of events with the given routing key
func (p *RecordingPublisher) AssertEventCount(t *testing.T, routingKey string, expected int) {
	t.Helper()

	if count := p.CountByKey(routingKey); count != expected {
		t.Errorf("Expected %d events with routing key '%s', got %d", expected, routingKey, count)
	}
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
