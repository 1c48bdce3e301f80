package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySubscribeIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	topic := OrderTopic("o1")

	for i := 0; i < 5; i++ {
		reg.Subscribe("c1", topic)
	}

	require.Equal(t, []string{"c1"}, reg.Subscribers(topic))
}

func TestRegistryUnsubscribe(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	topic := UserTopic("u1")

	reg.Subscribe("c1", topic)
	reg.Subscribe("c2", topic)
	reg.Unsubscribe("c1", topic)

	assert.Equal(t, []string{"c2"}, reg.Subscribers(topic))

	// unsubscribing an unknown pair is a no-op
	reg.Unsubscribe("c1", topic)
	reg.Unsubscribe("never-subscribed", OrderTopic("other"))
	assert.Equal(t, []string{"c2"}, reg.Subscribers(topic))
}

func TestRegistryDropConnection(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	topics := []Topic{OrderTopic("o1"), UserTopic("u1"), TopicAdmin}
	for _, topic := range topics {
		reg.Subscribe("c1", topic)
		reg.Subscribe("c2", topic)
	}

	reg.DropConnection("c1")

	for _, topic := range topics {
		assert.Equal(t, []string{"c2"}, reg.Subscribers(topic), "topic %s still lists dropped connection", topic)
	}

	// dropping twice, or dropping a connection that never subscribed, is fine
	reg.DropConnection("c1")
	reg.DropConnection("ghost")
}

func TestRegistryEmptyTopic(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	assert.Empty(t, reg.Subscribers(OrderTopic("nobody-cares")))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	topic := OrderTopic("hot")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			for j := 0; j < 100; j++ {
				reg.Subscribe(id, topic)
				reg.Subscribers(topic)
				if j%2 == 0 {
					reg.Unsubscribe(id, topic)
				} else {
					reg.DropConnection(id)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, reg.Subscribers(topic))
}
