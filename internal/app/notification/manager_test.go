package notification

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/nowplaying/internal/app/player"
)

type captureStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	delay time.Duration
}

func (c *captureStream) Send(n *Notification) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, n)
	return nil
}

func (c *captureStream) received() []*Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Notification(nil), c.got...)
}

func TestManager_DeliversToMatchingSubscribers(t *testing.T) {
	m := NewManager(0)
	u1 := &captureStream{}
	u2 := &captureStream{}
	all := &captureStream{}

	m.Subscribe("u1", u1)
	m.Subscribe("u2", u2)
	m.Subscribe("", all)
	require.Equal(t, 3, m.SubscriberCount())

	m.Publish(player.Event{UserID: "u1", Command: player.CommandPause})

	require.Len(t, u1.received(), 1)
	assert.Equal(t, player.CommandPause, u1.received()[0].Event.Command)
	assert.Empty(t, u2.received())
	assert.Len(t, all.received(), 1)
}

func TestManager_SequenceNumbersIncrease(t *testing.T) {
	m := NewManager(0)
	s := &captureStream{}
	m.Subscribe("u1", s)

	first := m.Broadcast(player.Event{UserID: "u1"})
	second := m.Broadcast(player.Event{UserID: "u2"})
	third := m.Broadcast(player.Event{UserID: "u1"})

	assert.Less(t, first, second)
	assert.Less(t, second, third)
	got := s.received()
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].SequenceNo)
	assert.Equal(t, third, got[1].SequenceNo)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager(0)
	s := &captureStream{}
	id := m.Subscribe("u1", s)

	m.Unsubscribe(id)
	m.Publish(player.Event{UserID: "u1"})

	assert.Empty(t, s.received())
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	slow := &captureStream{delay: time.Second}
	failing := &captureStream{err: errors.New("stream closed")}
	fast := &captureStream{}
	m.Subscribe("u1", slow)
	m.Subscribe("u1", failing)
	m.Subscribe("u1", fast)

	start := time.Now()
	m.Publish(player.Event{UserID: "u1"})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, fast.received(), 1)
}

func TestManager_Close(t *testing.T) {
	m := NewManager(0)
	m.Subscribe("u1", &captureStream{})
	m.Subscribe("", &captureStream{})

	m.Close()

	assert.Equal(t, 0, m.SubscriberCount())
}
