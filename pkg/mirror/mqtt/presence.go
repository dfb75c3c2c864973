package mqtt

import (
	"encoding/json"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// NodeMeta describes a relay node. It is published retained on the meta
// topic while the node is connected.
type NodeMeta struct {
	Node      string `json:"node"`
	Direction string `json:"direction"`
	In        string `json:"in"`
	Out       string `json:"out"`
}

// MetaTopic is the presence topic of node.
func MetaTopic(node string) string {
	return node + "/meta"
}

// SetPresenceWill makes the broker clear the retained meta of node if the
// client disappears. It must be applied before connecting.
func SetPresenceWill(opts *paho.ClientOptions, topicPrefix, node string) {
	opts.SetBinaryWill(topicPrefix+MetaTopic(node), nil, 1, true)
}

// Announce publishes meta retained and republishes it on every reconnect.
func (q *Queue) Announce(meta NodeMeta) paho.Token {
	data, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	q.AddConnectHandler(func(q *Queue) {
		q.Client.Publish(q.TopicPrefix+MetaTopic(meta.Node), 1, true, data)
	})
	return q.Client.Publish(q.TopicPrefix+MetaTopic(meta.Node), 1, true, data)
}

// Withdraw clears the retained meta of node.
func (q *Queue) Withdraw(node string) paho.Token {
	return q.Client.Publish(q.TopicPrefix+MetaTopic(node), 1, true, []byte{})
}

// PresenceHandler is told about nodes coming and going. meta is nil when
// the node left.
type PresenceHandler func(node string, meta *NodeMeta)

// WatchPresence reports presence changes of all nodes.
func WatchPresence(q *Queue, handler PresenceHandler) *Subscription {
	return q.Sub("+/meta", func(topic string, payload []byte) {
		node := strings.TrimSuffix(topic, "/meta")
		if len(payload) == 0 {
			handler(node, nil)
			return
		}
		var meta NodeMeta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.V(2).Infof("bad meta on %q: %v", topic, err)
			return
		}
		handler(node, &meta)
	})
}
