package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_PublishInSubscriptionOrder(t *testing.T) {
	b := New[int]()
	var got []string

	b.Subscribe(func(v int) { got = append(got, "first") })
	b.Subscribe(func(v int) { got = append(got, "second") })

	b.Publish(1)

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBroadcaster_DeliveryIsSynchronous(t *testing.T) {
	b := New[string]()
	var last string
	b.Subscribe(func(v string) { last = v })

	b.Publish("a")
	assert.Equal(t, "a", last)

	b.Publish("b")
	assert.Equal(t, "b", last)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := New[int]()
	calls := 0
	unsubscribe := b.Subscribe(func(int) { calls++ })
	assert.Equal(t, 1, b.Len())

	b.Publish(1)
	unsubscribe()
	unsubscribe()
	b.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_SubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	b := New[int]()
	calls := 0
	var unsubscribe func()
	unsubscribe = b.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, 1, calls)
}
