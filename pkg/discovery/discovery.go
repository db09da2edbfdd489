// Package discovery finds servers on the local network by UDP broadcast.
package discovery

import (
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/ccxstream/xbmsp/pkg/handshake"
	"github.com/ccxstream/xbmsp/pkg/packet"
	"github.com/ccxstream/xbmsp/pkg/wire"
)

const (
	DefaultPort      = 1400
	BroadcastAddress = "255.255.255.255"
	DefaultWindow    = 900 * time.Millisecond
	DefaultWait      = 350 * time.Millisecond
)

var ErrNotFound = errors.New("no servers found")

// Server is one answer to a discovery query.
type Server struct {
	Address string
	Port    string
	Version string
	Comment string
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Options struct {
	Port          int
	BroadcastAddr string
	// Window bounds the whole run, Wait a single receive.
	Window  time.Duration
	Wait    time.Duration
	Version string
	// Listen opens the endpoint. The default binds a broadcast capable UDP
	// socket on an ephemeral port.
	Listen func() (net.PacketConn, error)
	Clock  Clock
	// QueryID is the id every query of a run carries. Zero picks a random
	// one.
	QueryID packet.ID
}

func DefaultOptions() Options {
	return Options{
		Port:          DefaultPort,
		BroadcastAddr: BroadcastAddress,
		Window:        DefaultWindow,
		Wait:          DefaultWait,
		Version:       handshake.ProtocolVersion,
		Listen:        listenBroadcast,
		Clock:         systemClock{},
	}
}

type serverKey struct {
	address string
	port    string
}

// queryID derives a 20-bit sequence shifted left 12 from the run id.
func queryID(run uuid.UUID) packet.ID {
	seq := binary.BigEndian.Uint32(run[:4]) & (1<<20 - 1)
	if seq == 0 {
		seq = 1
	}
	return packet.ID(seq << 12)
}

// Discover broadcasts a query and calls fn once for every distinct server
// answering within the window. It returns nil if at least one server was
// found, an error marked ErrNotFound if none was, or the setup failure.
func Discover(opts Options, fn func(Server)) (err error) {
	if opts.Listen == nil {
		opts.Listen = listenBroadcast
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	dest, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(opts.BroadcastAddr, strconv.Itoa(opts.Port)))
	if err != nil {
		return errors.Wrapf(err, "invalid broadcast address %v", opts.BroadcastAddr)
	}

	run := uuid.New()
	id := opts.QueryID
	if id == 0 {
		id = queryID(run)
	}
	log := logrus.WithFields(logrus.Fields{
		"run":  run.String(),
		"dest": dest.String(),
		"id":   id,
	})

	conn, err := opts.Listen()
	if err != nil {
		return errors.Wrap(err, "failed to open discovery endpoint")
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			cerr = errors.Wrap(cerr, "failed to close discovery endpoint")
			if err == nil {
				log.WithError(cerr).Warn("Ignoring endpoint close failure")
				return
			}
			err = multierr.Append(err, cerr)
		}
	}()

	query := packet.EncodeRequest(id, packet.DiscoveryQuery{Version: opts.Version})
	if _, err := conn.WriteTo(query, dest); err != nil {
		return errors.Wrap(err, "failed to send discovery query")
	}
	log.Debug("Sent discovery query")

	seen := map[serverKey]bool{}
	end := opts.Clock.Now().Add(opts.Window)
	buf := make([]byte, wire.MaxPacketSize)
	for {
		now := opts.Clock.Now()
		remaining := end.Sub(now)
		if remaining <= 0 {
			break
		}
		wait := opts.Wait
		if wait > remaining {
			wait = remaining
		}
		if err := conn.SetReadDeadline(now.Add(wait)); err != nil {
			return finish(log, len(seen), errors.Wrap(err, "failed to set read deadline"))
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var nerr net.Error
			if !errors.As(err, &nerr) || !nerr.Timeout() {
				return finish(log, len(seen), errors.Wrap(err, "discovery endpoint failed"))
			}
			if end.Sub(opts.Clock.Now()) <= 0 {
				break
			}
			if _, err := conn.WriteTo(query, dest); err != nil {
				return finish(log, len(seen), errors.Wrap(err, "failed to resend discovery query"))
			}
			log.Debug("Resent discovery query")
			continue
		}

		replyID, reply, err := packet.DecodeDatagram(buf[:n])
		if err != nil {
			log.WithError(err).Debugf("Ignoring malformed datagram from %v", from)
			continue
		}
		if replyID != id {
			log.Debugf("Ignoring reply %#x from %v", replyID, from)
			continue
		}

		server := Server{
			Address: reply.Address,
			Port:    reply.Port,
			Version: reply.Version,
			Comment: reply.Comment,
		}
		if server.Address == "" || server.Port == "" {
			host, port, _ := net.SplitHostPort(from.String())
			if server.Address == "" {
				server.Address = host
			}
			if server.Port == "" {
				server.Port = port
			}
		}
		key := serverKey{server.Address, server.Port}
		if seen[key] {
			continue
		}
		seen[key] = true
		log.WithFields(logrus.Fields{
			"address": server.Address,
			"port":    server.Port,
		}).Debug("Discovered server")
		fn(server)
	}
	return finish(log, len(seen), nil)
}

// finish maps the end of a run to its outcome. Endpoint failures after at
// least one answer still count as success.
func finish(log *logrus.Entry, found int, err error) error {
	if found > 0 {
		if err != nil {
			log.WithError(err).Warn("Discovery stopped early")
		}
		return nil
	}
	if err != nil {
		return errors.Mark(err, ErrNotFound)
	}
	return ErrNotFound
}
