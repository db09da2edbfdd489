//go:build !(linux || darwin || freebsd)

package discovery

import "net"

func listenBroadcast() (net.PacketConn, error) {
	return net.ListenPacket("udp4", ":0")
}
