// Command attserve runs a demonstration attribute server over stdin and
// stdout: each line of input is a hex-encoded inbound PDU, and each
// response PDU is printed hex-encoded to stdout. It exists to exercise
// Server end-to-end without a real L2CAP transport underneath it.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/nwhitehead/attgatt"
)

func main() {
	app := cli.NewApp()
	app.Name = "attserve"
	app.Usage = "drive a demonstration Attribute Protocol server over stdin/stdout"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.UintFlag{Name: "mtu", Value: att.DefaultMTU, Usage: "server Rx MTU to offer during MTU Exchange"},
		cli.BoolFlag{Name: "verbose", Usage: "enable debug-level logging (the server logs unsupported request opcodes)"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "read hex PDUs from stdin, one per line, writing hex responses to stdout",
			Action: serveCommand,
		},
		{
			Name:   "demo",
			Usage:  "register a small built-in battery-service table and serve it",
			Action: demoCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand(c *cli.Context) error {
	srv := newDemoServer(c, false)
	return runLoop(srv, os.Stdin, os.Stdout)
}

func demoCommand(c *cli.Context) error {
	srv := newDemoServer(c, true)
	return runLoop(srv, os.Stdin, os.Stdout)
}

func newDemoServer(c *cli.Context, withBattery bool) *att.Server {
	logger := log.StandardLogger()
	if c.GlobalBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	var conn att.ConnID = 1
	srv := att.NewServer(
		att.WithMTU(uint16(c.GlobalUint("mtu"))),
		att.WithLogger(logger),
		att.WithTx(func(id att.ConnID, pdu []byte) error {
			_, err := fmt.Fprintln(os.Stdout, hex.EncodeToString(pdu))
			return err
		}),
	)
	srv.Connect(conn)

	if withBattery {
		registerBatteryService(srv)
	}
	return srv
}

// registerBatteryService registers a minimal Battery Service (0x180F)
// with one Battery Level characteristic (0x2A19), backed by an
// in-memory counter that decrements on every read to simulate
// draining. It exists to give the demo command something to read and
// scan without requiring a transport-layer peer.
func registerBatteryService(srv *att.Server) {
	level := byte(100)
	svc := att.NewService(att.UUID16(0x180F))
	svc.AddCharacteristic(&att.Characteristic{
		UUID:       att.UUID16(0x2A19),
		Properties: att.CharRead,
		Access: att.ReadFunc(func() []byte {
			if level > 0 {
				level--
			}
			return []byte{level}
		}),
	})
	srv.AddService(svc)
}

func runLoop(srv *att.Server, in *os.File, out *os.File) error {
	var conn att.ConnID = 1
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pdu, err := hex.DecodeString(line)
		if err != nil {
			return errors.Wrapf(err, "attserve: malformed hex line %q", line)
		}
		if err := srv.Rx(conn, pdu); err != nil {
			return errors.Wrap(err, "attserve: rx")
		}
	}
	return scanner.Err()
}
