package sh

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/spine.go/pkg/l0/link"
	"github.com/robotalks/spine.go/pkg/l0/spine"
)

func parseDirType(args []string) (*spine.Direction, spine.MessageType, error) {
	dir, err := spine.ParseDirection(args[0])
	if err != nil {
		return nil, spine.TypeInvalid, err
	}
	t, err := spine.ParseMessageType(args[1])
	return dir, t, err
}

var (
	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				ports = []string{}
			}
			ShellFrom(c).print(c, ports, strings.Join(ports, "\n"))
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: open URL"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}

	// TablesCmd prints message sizes per direction.
	TablesCmd = ishell.Cmd{
		Name: "tables",
		Help: "show message sizes",
		Func: func(c *ishell.Context) {
			c.Print(Tables())
		},
	}

	// SendCmd sends a frame.
	SendCmd = ishell.Cmd{
		Name:     "send",
		Help:     "DIR TYPE [HEX]",
		LongHelp: "Sends a frame. Without HEX the payload is all zeros.",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 || len(c.Args) > 3 {
				c.Err(fmt.Errorf("usage: send DIR TYPE [HEX]"))
				return
			}
			dir, t, err := parseDirType(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			var payload []byte
			if len(c.Args) == 3 {
				if payload, err = hex.DecodeString(c.Args[2]); err != nil {
					c.Err(err)
					return
				}
			}
			if _, err = ShellFrom(c).Send(dir, t, payload); err != nil {
				c.Err(err)
			}
		}),
	}

	// TextCmd sends a dataCharacter frame.
	TextCmd = ishell.Cmd{
		Name: "text",
		Help: "DIR TEXT...",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("usage: text DIR TEXT..."))
				return
			}
			dir, err := spine.ParseDirection(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err = ShellFrom(c).Text(dir, strings.Join(c.Args[1:], " ")); err != nil {
				c.Err(err)
			}
		}),
	}

	// RecvCmd receives frames.
	RecvCmd = ishell.Cmd{
		Name:     "recv",
		Aliases:  []string{"r"},
		Help:     "DIR [N]",
		LongHelp: "Receives N frames (default 1). Rejected frames are reported and count.",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 || len(c.Args) > 2 {
				c.Err(fmt.Errorf("usage: recv DIR [N]"))
				return
			}
			dir, err := spine.ParseDirection(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			count := 1
			if len(c.Args) == 2 {
				if count, err = strconv.Atoi(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			s := ShellFrom(c)
			for i := 0; i < count; i++ {
				r, err := s.Recv(dir)
				if err != nil {
					c.Err(err)
					if !spine.IsFrameError(err) {
						return
					}
					continue
				}
				s.print(c, r, fmt.Sprintf("%s %s", r.Code, r.Summary))
			}
		}),
	}
)
