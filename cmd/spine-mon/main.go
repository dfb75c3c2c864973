package main

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/spine.go/pkg/env"
	fx "github.com/robotalks/spine.go/pkg/framework"
	"github.com/robotalks/spine.go/pkg/l0/spine"
	"github.com/robotalks/spine.go/pkg/mirror/mqtt"
)

var from string

func init() {
	env.SetupFlags()
	flag.StringVar(&from, "from", from, "Only show frames mirrored by this node.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	if conf.MQTTURL == "" {
		conf.MQTTURL = "mqtt://localhost:1883/spine/"
	}
	q := conf.MustNewQueue("spine-mon", false)
	defer q.Close()

	mqtt.WatchPresence(q, func(node string, meta *mqtt.NodeMeta) {
		if meta == nil {
			log.Printf("%s offline", node)
			return
		}
		log.Printf("%s online: %s %s -> %s", node, meta.Direction, meta.In, meta.Out)
	})
	mqtt.Subscribe(q, from, func(node string, m *mqtt.Mirrored) {
		log.Printf("%s %s %s: %s", node, m.Dir, m.Type.Mnemonic(), spine.Describe(m.Type, m.Payload))
	})

	err := fx.NewRunner().HandleSignals().Go(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
