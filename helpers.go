package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/gopacket/layers"
)

// isPortReachable completes a full TCP handshake to confirm the target
// answers on the probed port before any raw probing starts.
func isPortReachable(ip string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(ip, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// isLocalIP reports whether the address is bound on this machine.
// Probing a local address would race our own suppression rule against
// the host stack, so the pre-flight rejects it.
func isLocalIP(ip string) bool {
	l, err := net.Listen("tcp", net.JoinHostPort(ip, "0"))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// egressAddr returns the local IPv4 address the kernel routes toward
// the target. Raw TCP checksums cover the source address, so it must
// be the real egress one, not just any interface address.
func egressAddr(ip string, port int) (net.IP, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolving egress address: %w", err)
	}
	defer conn.Close()
	laddr := conn.LocalAddr().(*net.UDPAddr)
	ip4 := laddr.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("no IPv4 egress address toward %s", ip)
	}
	return ip4, nil
}

// validPorts checks that a TCP reply's port pair mirrors the probe's.
func validPorts(tcp *layers.TCP, sport, dport int) bool {
	return int(tcp.SrcPort) == sport && int(tcp.DstPort) == dport
}
