package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"guard-core/internal/model"

	"github.com/stretchr/testify/assert"
)

type fakeProducer struct {
	mu     sync.Mutex
	failOn map[string]bool
	sent   []string
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[string(payload)] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key+":"+string(payload))
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestRelayService_DeliversInOrder(t *testing.T) {
	outbox := &fakeOutbox{}
	outbox.add("0xaa", "queued")
	outbox.add("0xaa", "veto")
	outbox.add("0xbb", "queued")
	producer := &fakeProducer{}

	relay := NewRelayService(outbox, producer)
	assert.Equal(t, 3, relay.ProcessPending(context.Background()))
	assert.Equal(t, []string{"0xaa:queued", "0xaa:veto", "0xbb:queued"}, producer.sent)
	assert.Equal(t, 0, relay.ProcessPending(context.Background()))
}

func TestRelayService_StopsBatchOnFailure(t *testing.T) {
	outbox := &fakeOutbox{}
	outbox.add("0xaa", "first")
	outbox.add("0xaa", "second")
	producer := &fakeProducer{failOn: map[string]bool{"first": true}}

	relay := NewRelayService(outbox, producer)
	assert.Equal(t, 0, relay.ProcessPending(context.Background()))
	assert.Empty(t, producer.sent)
	assert.Equal(t, model.OutboxPending, outbox.status(1))
	assert.Equal(t, model.OutboxPending, outbox.status(2))

	producer.failOn = nil
	assert.Equal(t, 2, relay.ProcessPending(context.Background()))
	assert.Equal(t, model.OutboxSent, outbox.status(1))
}

func TestRelayService_GivesUpAfterMaxAttempts(t *testing.T) {
	outbox := &fakeOutbox{}
	outbox.add("0xaa", "poison")
	outbox.add("0xaa", "next")
	producer := &fakeProducer{failOn: map[string]bool{"poison": true}}

	relay := NewRelayService(outbox, producer)
	relay.maxAttempts = 2

	relay.ProcessPending(context.Background())
	assert.Equal(t, model.OutboxPending, outbox.status(1))
	relay.ProcessPending(context.Background())
	assert.Equal(t, model.OutboxFailed, outbox.status(1))

	assert.Equal(t, 1, relay.ProcessPending(context.Background()))
	assert.Equal(t, []string{"0xaa:next"}, producer.sent)
}
