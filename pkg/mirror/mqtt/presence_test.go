package mqtt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence(t *testing.T) {
	q, client := newFakeQueue("spine/")
	var events []*NodeMeta
	var nodes []string
	WatchPresence(q, func(node string, meta *NodeMeta) {
		nodes = append(nodes, node)
		events = append(events, meta)
	})

	meta := NodeMeta{Node: "robot1", Direction: "b2h", In: "serial:///dev/ttyS1", Out: "tcp://head:7000"}
	q.Announce(meta)
	require.Equal(t, "spine/robot1/meta", client.published[0].topic)
	require.JSONEq(t, `{"node":"robot1","direction":"b2h","in":"serial:///dev/ttyS1","out":"tcp://head:7000"}`,
		string(client.published[0].payload))

	// republished on reconnect
	q.onConnect(client)
	require.Len(t, client.published, 2)

	q.Withdraw("robot1")
	require.Equal(t, []string{"robot1", "robot1", "robot1"}, nodes)
	require.Equal(t, &meta, events[0])
	require.Nil(t, events[2])
}

func TestAnnounceWhileConnecting(t *testing.T) {
	q, client := newFakeQueue("spine/")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			q.onConnect(client)
		}
	}()
	q.Announce(NodeMeta{Node: "n1"})
	q.Announce(NodeMeta{Node: "n2"})
	wg.Wait()

	client.published = nil
	q.onConnect(client)
	topics := []string{client.published[0].topic, client.published[1].topic}
	require.ElementsMatch(t, []string{"spine/n1/meta", "spine/n2/meta"}, topics)
}

func TestAddConnectHandler(t *testing.T) {
	q, client := newFakeQueue("")
	var calls []string
	q.OnConnect = func(*Queue) { calls = append(calls, "first") }
	q.AddConnectHandler(func(*Queue) { calls = append(calls, "second") })
	q.onConnect(client)
	require.Equal(t, []string{"second", "first"}, calls)
}
