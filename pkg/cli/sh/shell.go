package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/spine.go/pkg/env"
	"github.com/robotalks/spine.go/pkg/l0/link"
	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// Shell provides an ishell backed interactive shell on one link.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config

	// Link is the open link, nil if none.
	Link io.ReadWriteCloser
	URL  string

	channels map[*spine.Direction]*spine.Channel
	dial     func(*link.Endpoint) (io.ReadWriteCloser, error)
}

// Received is a frame read by Recv.
type Received struct {
	Dir     string `json:"dir"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Size    int    `json:"size"`
	Payload string `json:"payload"`
	Summary string `json:"summary"`
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&TablesCmd,
		&SendCmd,
		&TextCmd,
		&RecvCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

func newShell(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Config:      conf,
		channels:    make(map[*spine.Direction]*spine.Channel),
		dial:        (*link.Endpoint).Open,
	}
	for _, dir := range spine.Directions {
		s.channels[dir] = spine.NewChannel(dir)
	}
	return s
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := newShell(conf)
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps a command func that needs a link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("no link open"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Open opens a link, replacing the current one. The current link is closed
// even if the new one fails to open.
func (s *Shell) Open(linkURL string) error {
	ep, err := link.ParseURL(linkURL)
	if err != nil {
		return err
	}
	// serial ports open exclusively, so the current link goes first
	s.Close()
	rwc, err := s.dial(ep)
	if err != nil {
		return err
	}
	s.Link, s.URL = rwc, linkURL
	s.setPrompt(fmt.Sprintf("[%s] > ", ep))
	return nil
}

// Close closes the current link.
func (s *Shell) Close() error {
	if s.Link == nil {
		return nil
	}
	err := s.Link.Close()
	s.Link, s.URL = nil, ""
	s.setPrompt(closedPrompt)
	return err
}

// Send encodes a frame of t for dir and writes it. A nil payload is
// zero-filled to the table size.
func (s *Shell) Send(dir *spine.Direction, t spine.MessageType, payload []byte) (int, error) {
	if payload == nil {
		size, ok := dir.Size(t)
		if !ok {
			return 0, fmt.Errorf("%w: %s in %s", spine.ErrUnknownType, t, dir)
		}
		payload = make([]byte, size)
	}
	ch := s.channels[dir]
	size, err := ch.Encode(t, payload)
	if err != nil {
		return 0, err
	}
	return size, ch.Send(s.Link, size)
}

// Text sends a dataCharacter frame.
func (s *Shell) Text(dir *spine.Direction, text string) error {
	ch := s.channels[dir]
	size, err := ch.DataCharacterMsg(text)
	if err != nil {
		return err
	}
	return ch.Send(s.Link, size)
}

// Recv receives one frame of dir.
func (s *Shell) Recv(dir *spine.Direction) (*Received, error) {
	ch := s.channels[dir]
	t, size, err := ch.Receive(s.Link)
	if err != nil {
		return nil, err
	}
	payload := ch.Payload(size)
	return &Received{
		Dir:     dir.String(),
		Type:    t.String(),
		Code:    t.Mnemonic(),
		Size:    size,
		Payload: hex.EncodeToString(payload),
		Summary: spine.Describe(t, payload),
	}, nil
}

// Tables renders the size tables of both directions.
func Tables() string {
	var sb strings.Builder
	for _, dir := range spine.Directions {
		fmt.Fprintf(&sb, "%s (%s)\n", dir, dir.Tag())
		for _, t := range dir.Types() {
			size, _ := dir.Size(t)
			fmt.Fprintf(&sb, "  %s 0x%04x %-15s %4d\n", t.Mnemonic(), uint16(t), t, size)
		}
	}
	return sb.String()
}

func (s *Shell) print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.InURL != "" {
		if err := s.Open(s.Config.InURL); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.InURL, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
