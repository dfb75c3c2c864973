// Package env builds the relay environment from flags and SPINE_*
// environment variables.
package env

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/spine.go/pkg/capture"
	fx "github.com/robotalks/spine.go/pkg/framework"
	"github.com/robotalks/spine.go/pkg/l0/link"
	"github.com/robotalks/spine.go/pkg/l0/relay"
	"github.com/robotalks/spine.go/pkg/l0/spine"
	"github.com/robotalks/spine.go/pkg/mirror/mqtt"
)

// Config holds the options of a relay.
type Config struct {
	// InURL is the link frames are received from.
	InURL string
	// OutURL is the link frames are forwarded to.
	OutURL string
	// Dir names the direction of the inbound frames.
	Dir string
	// Echo prints dataCharacter text to stderr.
	Echo bool
	// MQTTURL enables mirroring, e.g. mqtt://host:1883/spine/
	MQTTURL string
	// Node identifies this relay in mirror topics.
	Node string
	// CapturePath enables recording into a SQLite database.
	CapturePath string
}

var defaultConfig = Config{
	InURL: "serial:///dev/ttyS1",
	Dir:   spine.BodyToHead.String(),
}

func init() {
	if val := os.Getenv("SPINE_IN"); val != "" {
		defaultConfig.InURL = val
	}
	if val := os.Getenv("SPINE_OUT"); val != "" {
		defaultConfig.OutURL = val
	}
	if val := os.Getenv("SPINE_DIR"); val != "" {
		defaultConfig.Dir = val
	}
	if val := os.Getenv("SPINE_ECHO"); val != "" {
		defaultConfig.Echo = val == "1" || val == "true"
	}
	if val := os.Getenv("SPINE_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("SPINE_CAPTURE"); val != "" {
		defaultConfig.CapturePath = val
	}
	if val := os.Getenv("SPINE_NODE"); val != "" {
		defaultConfig.Node = val
	} else {
		defaultConfig.Node = MachineID()
	}
}

// SetupFlags registers the options on the command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine)
}

// SetupFlagSet registers the options on fs.
func SetupFlagSet(fs *flag.FlagSet) {
	fs.StringVar(&defaultConfig.InURL, "in", defaultConfig.InURL, "Inbound link URL")
	fs.StringVar(&defaultConfig.OutURL, "out", defaultConfig.OutURL, "Outbound link URL")
	fs.StringVar(&defaultConfig.Dir, "dir", defaultConfig.Dir, "Direction of inbound frames: b2h or h2b")
	fs.BoolVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Echo dataCharacter text to stderr")
	fs.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL to mirror frames to")
	fs.StringVar(&defaultConfig.Node, "node", defaultConfig.Node, "Node ID used in mirror topics")
	fs.StringVar(&defaultConfig.CapturePath, "capture", defaultConfig.CapturePath, "SQLite file to record frames in")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Direction resolves Dir.
func (c *Config) Direction() (*spine.Direction, error) {
	return spine.ParseDirection(c.Dir)
}

// NewQueue connects to the MQTT broker. The client id defaults to the
// given role and the node. With presence set, the node meta is cleared by
// the broker when the connection is lost.
func (c *Config) NewQueue(role string, presence bool) (*mqtt.Queue, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}
	if opts.ClientID == "" {
		opts.SetClientID(role + "-" + c.Node)
	}
	if presence {
		mqtt.SetPresenceWill(opts, prefix, c.Node)
	}
	q := mqtt.NewQueue(opts, prefix)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return nil, fmt.Errorf("connect MQTT broker: %w", err)
	}
	return q, nil
}

// MustNewQueue is NewQueue failing fatally.
func (c *Config) MustNewQueue(role string, presence bool) *mqtt.Queue {
	q, err := c.NewQueue(role, presence)
	if err != nil {
		log.Fatalln(err)
	}
	return q
}

// Env is a fully wired relay: links, hooks and observers.
type Env struct {
	Config   *Config
	Relay    *relay.Relay
	In       io.ReadWriteCloser
	Out      io.ReadWriteCloser
	Queue    *mqtt.Queue
	Recorder *capture.Recorder

	// EchoWriter receives the text echo.
	EchoWriter io.Writer

	linksOnce sync.Once
	linksErr  error
}

// NewEnv opens everything the config asks for. On error whatever was
// already opened is closed.
func (c *Config) NewEnv() (*Env, error) {
	dir, err := c.Direction()
	if err != nil {
		return nil, err
	}
	if c.OutURL == "" {
		return nil, fmt.Errorf("outbound link URL must be specified")
	}
	e := &Env{Config: c, Relay: relay.New(dir), EchoWriter: os.Stderr}
	if err = e.open(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Env) open() (err error) {
	c := e.Config
	if e.In, err = link.Open(c.InURL); err != nil {
		return fmt.Errorf("open %s: %w", c.InURL, err)
	}
	if e.Out, err = link.Open(c.OutURL); err != nil {
		return fmt.Errorf("open %s: %w", c.OutURL, err)
	}
	e.Relay.In, e.Relay.Out = e.In, e.Out

	hooks := relay.NewDispatcher()
	if c.Echo {
		hooks.Handle(spine.TypeDataCharacter, relay.TextEcho(e.EchoWriter))
	}
	e.Relay.WithHook(hooks)

	if c.MQTTURL != "" {
		if e.Queue, err = c.NewQueue("spine-relay", true); err != nil {
			return err
		}
		e.Queue.Announce(mqtt.NodeMeta{
			Node:      c.Node,
			Direction: e.Relay.Direction().String(),
			In:        c.InURL,
			Out:       c.OutURL,
		})
		e.Relay.Observe(mqtt.NewPublisher(e.Queue, c.Node))
	}
	if c.CapturePath != "" {
		if e.Recorder, err = capture.Open(context.Background(), c.CapturePath); err != nil {
			return err
		}
		e.Relay.Observe(e.Recorder)
	}
	return nil
}

// MustNewEnv is NewEnv failing fatally.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// Name implements framework.Named.
func (e *Env) Name() string {
	return "env"
}

// Run implements framework.Runnable. It relays until ctx is done or a
// link fails, then lets the recorder flush.
func (e *Env) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(ctx)
	if e.Recorder != nil {
		runner.Go(e.Recorder)
	}
	glog.Infof("relaying %s frames from %s to %s", e.Relay.Direction(), e.Config.InURL, e.Config.OutURL)
	runner.Go(fx.NamedRun(e.Relay.Name(), fx.RunFunc(func(ctx context.Context) error {
		defer cancel()
		return fx.RunWithContextCloser(ctx, fx.CloserFunc(e.closeLinks), func() error {
			return e.Relay.Run(ctx)
		})
	})))
	err := runner.Wait()
	s := e.Relay.Counters().Snapshot()
	glog.Infof("forwarded %d of %d frames, %d rejected, %d modified",
		s.Forwarded, s.Received, s.Rejected(), s.Modified)
	return err
}

// Serve runs e on runner until it stops, then closes e. The capture
// database is flushed and the presence meta withdrawn even when the relay
// failed.
func (e *Env) Serve(runner *fx.Runner) error {
	var errs fx.AggregatedError
	errs.Add(runner.Go(e).Wait())
	if err := e.Close(); err != nil {
		glog.Warningf("close: %v", err)
		errs.Add(err)
	}
	return errs.Aggregate()
}

func (e *Env) closeLinks() error {
	e.linksOnce.Do(func() {
		e.linksErr = fx.CloseAll(e.In, e.Out)
	})
	return e.linksErr
}

// Close releases links, broker connection and capture database.
func (e *Env) Close() error {
	closers := fx.Closers{fx.CloserFunc(e.closeLinks)}
	if e.Queue != nil {
		e.Queue.Withdraw(e.Config.Node).WaitTimeout(time.Second)
		closers = append(closers, e.Queue)
	}
	if e.Recorder != nil {
		closers = append(closers, e.Recorder)
	}
	return closers.Close()
}
