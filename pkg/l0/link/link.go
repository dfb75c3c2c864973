// Package link opens the byte streams the boards are attached to.
//
// A link is named by URL:
//
//	serial:///dev/ttyS1?baud=3000000
//	tcp://192.168.1.20:7000
//	ws://bridge.local:8080/spine
//	stdio:
package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// DefaultBaudRate is the UART speed of the body board.
const DefaultBaudRate = 3000000

// Supported URL schemes.
const (
	SchemeSerial = "serial"
	SchemeTCP    = "tcp"
	SchemeWS     = "ws"
	SchemeWSS    = "wss"
	SchemeStdio  = "stdio"
)

// Endpoint is a parsed link URL.
type Endpoint struct {
	Scheme string
	// Address is the device path for serial, host:port for tcp and the
	// full URL for websockets.
	Address  string
	BaudRate int
	// Origin is sent in the websocket handshake.
	Origin string
}

// ParseURL parses a link URL. A bare path is taken as a serial device.
func ParseURL(linkURL string) (*Endpoint, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	ep := &Endpoint{Scheme: u.Scheme}
	switch u.Scheme {
	case "", SchemeSerial:
		ep.Scheme = SchemeSerial
		ep.Address = u.Path
		if ep.Address == "" {
			ep.Address = u.Opaque
		}
		ep.BaudRate = DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if ep.BaudRate, err = strconv.Atoi(val); err != nil || ep.BaudRate <= 0 {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
	case SchemeTCP:
		ep.Address = u.Host
	case SchemeWS, SchemeWSS:
		ep.Address = u.String()
		ep.Origin = "http://localhost/"
		if val := u.Query().Get("origin"); val != "" {
			ep.Origin = val
		}
	case SchemeStdio:
		return ep, nil
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
	if ep.Address == "" {
		return nil, fmt.Errorf("link URL %q has no address", linkURL)
	}
	return ep, nil
}

// Open opens the link. Reads block until data arrives; Close unblocks
// a pending read.
func (e *Endpoint) Open() (io.ReadWriteCloser, error) {
	switch e.Scheme {
	case SchemeSerial:
		return serial.Open(e.Address, &serial.Mode{
			BaudRate: e.BaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
	case SchemeTCP:
		return net.Dial("tcp", e.Address)
	case SchemeWS, SchemeWSS:
		conn, err := websocket.Dial(e.Address, "", e.Origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	case SchemeStdio:
		return Stdio(), nil
	}
	return nil, fmt.Errorf("unknown link URL scheme: %q", e.Scheme)
}

// String implements fmt.Stringer.
func (e *Endpoint) String() string {
	switch e.Scheme {
	case SchemeSerial:
		return fmt.Sprintf("%s@%d", e.Address, e.BaudRate)
	case SchemeStdio:
		return SchemeStdio
	}
	return e.Address
}

// Open parses linkURL and opens the link.
func Open(linkURL string) (io.ReadWriteCloser, error) {
	ep, err := ParseURL(linkURL)
	if err != nil {
		return nil, err
	}
	return ep.Open()
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// Stdio is a link over standard input and output.
func Stdio() io.ReadWriteCloser {
	return stdio{Reader: os.Stdin, Writer: os.Stdout}
}
