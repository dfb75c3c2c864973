package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/spine.go/pkg/env"
	fx "github.com/robotalks/spine.go/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	if err := e.Serve(fx.NewRunner().HandleSignals()); err != nil {
		log.Fatalln(err)
	}
}
