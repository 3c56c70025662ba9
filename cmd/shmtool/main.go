package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ghetzel/cli"
	log "github.com/sirupsen/logrus"

	"github.com/ghetzel/shared/shmem"
)

const DefaultLogLevel = `info`
const maxMessageBytes = 240

// message is the fixed-size payload shmtool's send/recv commands exchange
// over a SharedChannel. Every type a channel or VolatileCell holds must be
// fixed-size and pointer-free, so a length-prefixed byte array stands in
// for a string.
type message struct {
	length uint32
	data   [maxMessageBytes]byte
}

func encodeMessage(s string) (message, error) {
	var m message
	if len(s) > maxMessageBytes {
		return m, fmt.Errorf("message too long: %d bytes (max %d)", len(s), maxMessageBytes)
	}
	copy(m.data[:], s)
	m.length = uint32(len(s))
	return m, nil
}

func (m message) String() string {
	return string(m.data[:m.length])
}

func main() {
	app := cli.NewApp()
	app.Name = `shmtool`
	app.Usage = `a command line utility for interacting with cross-process shared memory allocations`
	app.Version = shmem.Version
	app.EnableBashCompletion = false
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   `log-level, L`,
			Usage:  `Level of logging verbosity`,
			Value:  DefaultLogLevel,
			EnvVar: `LOGLEVEL`,
		},
	}

	app.Before = func(c *cli.Context) error {
		if lvl := c.String(`log-level`); lvl != `` {
			if l, err := log.ParseLevel(lvl); err == nil {
				log.SetLevel(l)
			} else {
				log.Fatalf("Invalid log level '%s'", lvl)
				return fmt.Errorf("%v", err)
			}
		}

		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:  `bootstrap`,
			Usage: `Create a new bootstrap segment and a message channel within it, printing the segment name and channel address`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  `capacity, c`,
					Usage: `Initial channel ring capacity`,
				},
			},
			Action: func(c *cli.Context) {
				// No prior call to shmem.Bootstrap means Default creates a
				// brand-new bootstrap segment rather than opening one.
				alloc := shmem.Default()

				ch, err := shmem.NewChannel[message](uint32(c.Int(`capacity`)))
				if err != nil {
					log.Fatalf("Failed to create channel: %v", err)
					return
				}

				log.Debugf("Created bootstrap segment %q with channel at offset %#x", alloc.Name(), ch.Address().ObjectOffset())
				fmt.Printf("%s %d\n", alloc.Name(), ch.Address().ToUint64())
			},
		}, {
			Name:      `send`,
			Usage:     `Send a message over a channel living in an existing bootstrap segment`,
			ArgsUsage: `BOOTSTRAP CHANNEL-ADDRESS MESSAGE`,
			Action: func(c *cli.Context) {
				if c.NArg() < 3 {
					log.Fatalf("Must specify a bootstrap name, channel address, and message")
					return
				}

				shmem.Bootstrap(c.Args().Get(0))
				alloc := shmem.Default()
				defer alloc.Close()

				addrBits, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
				if err != nil {
					log.Fatalf("Invalid channel address: %v", err)
					return
				}
				ch, err := shmem.ChannelFromAddress[message](shmem.AddressRangeFromUint64(addrBits))
				if err != nil {
					log.Fatalf("Failed to resolve channel: %v", err)
					return
				}

				msg, err := encodeMessage(c.Args().Get(2))
				if err != nil {
					log.Fatalf("%v", err)
					return
				}

				if err := ch.Send(msg); err != nil {
					log.Fatalf("Failed to send: %v", err)
					return
				}

				log.Infof("Sent %d bytes", msg.length)
			},
		}, {
			Name:      `recv`,
			Usage:     `Receive a message from a channel living in an existing bootstrap segment`,
			ArgsUsage: `BOOTSTRAP CHANNEL-ADDRESS`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  `timeout, t`,
					Usage: `Seconds to wait for a message before giving up (0 waits forever)`,
				},
			},
			Action: func(c *cli.Context) {
				if c.NArg() < 2 {
					log.Fatalf("Must specify a bootstrap name and channel address")
					return
				}

				shmem.Bootstrap(c.Args().Get(0))
				alloc := shmem.Default()
				defer alloc.Close()

				addrBits, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
				if err != nil {
					log.Fatalf("Invalid channel address: %v", err)
					return
				}
				ch, err := shmem.ChannelFromAddress[message](shmem.AddressRangeFromUint64(addrBits))
				if err != nil {
					log.Fatalf("Failed to resolve channel: %v", err)
					return
				}

				timeout := time.Duration(c.Int(`timeout`)) * time.Second
				msg, ok, err := ch.Recv(timeout)
				if err != nil {
					log.Fatalf("Failed to receive: %v", err)
					return
				}
				if !ok {
					log.Fatalf("Timed out waiting for a message")
					return
				}

				fmt.Println(msg.String())
			},
		}, {
			Name:      `rm`,
			Usage:     `Unmap a bootstrap segment from this process (does not affect other processes still attached)`,
			ArgsUsage: `BOOTSTRAP`,
			Action: func(c *cli.Context) {
				if c.NArg() < 1 {
					log.Fatalf("Must specify a bootstrap name")
					return
				}

				alloc, err := shmem.OpenAllocator(c.Args().Get(0))
				if err != nil {
					log.Fatalf("Failed to open allocator: %v", err)
					return
				}

				if err := alloc.Close(); err != nil {
					log.Fatalf("Failed to close allocator: %v", err)
					return
				}

				log.Infof("Closed bootstrap segment %q", c.Args().Get(0))
			},
		},
	}

	app.Run(os.Args)
}
