package mqtt

import (
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// Topic returns the topic a frame is mirrored on, relative to the queue
// prefix: "<node>/<dir>/<mnemonic>".
func Topic(node string, dir *spine.Direction, t spine.MessageType) string {
	return node + "/" + dir.String() + "/" + t.Mnemonic()
}

// Publisher mirrors relayed frames to MQTT. It implements relay.Observer.
type Publisher struct {
	Queue *Queue
	Node  string
}

// NewPublisher creates a Publisher for node.
func NewPublisher(q *Queue, node string) *Publisher {
	return &Publisher{Queue: q, Node: node}
}

// ObserveFrame publishes the frame without waiting for delivery.
func (p *Publisher) ObserveFrame(dir *spine.Direction, t spine.MessageType, frame []byte) {
	data, err := EncodeEnvelope(dir, t, frame)
	if err != nil {
		glog.Errorf("mirror %s: %v", t, err)
		return
	}
	token := p.Queue.Pub(Topic(p.Node, dir, t), data)
	if token.Error() != nil {
		glog.Warningf("mirror %s: %v", t, token.Error())
	}
}

// MirrorHandler receives decoded frames from Subscribe.
type MirrorHandler func(node string, m *Mirrored)

// Subscribe delivers mirrored frames of node, or of every node if node is
// empty. Undecodable messages are logged and dropped.
func Subscribe(q *Queue, node string, handler MirrorHandler) *Subscription {
	if node == "" {
		node = "+"
	}
	return q.Sub(node+"/+/+", func(topic string, payload []byte) {
		m, err := DecodeEnvelope(payload)
		if err != nil {
			glog.V(2).Infof("drop %q: %v", topic, err)
			return
		}
		handler(topic[:strings.Index(topic, "/")], m)
	})
}
