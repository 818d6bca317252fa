package main

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
)

func TestValidPorts(t *testing.T) {
	tcp := &layers.TCP{SrcPort: 8080, DstPort: 40000}
	tests := []struct {
		name         string
		sport, dport int
		want         bool
	}{
		{"exact match", 8080, 40000, true},
		{"wrong source", 8081, 40000, false},
		{"wrong destination", 8080, 40001, false},
		{"swapped", 40000, 8080, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := validPorts(tcp, tc.sport, tc.dport); got != tc.want {
				t.Errorf("validPorts(%d,%d) = %v, want %v", tc.sport, tc.dport, got, tc.want)
			}
		})
	}
}

func TestIsLocalIP(t *testing.T) {
	if !isLocalIP("127.0.0.1") {
		t.Error("loopback should be local")
	}
	// TEST-NET-1 is never assigned to a local interface.
	if isLocalIP("192.0.2.1") {
		t.Error("192.0.2.1 should not be local")
	}
}

func TestIsPortReachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if !isPortReachable("127.0.0.1", port, time.Second) {
		t.Errorf("port %d with live listener reported unreachable", port)
	}
	l.Close()
	if isPortReachable("127.0.0.1", port, 100*time.Millisecond) {
		t.Errorf("closed port %d reported reachable", port)
	}
}

func TestEgressAddr(t *testing.T) {
	ip, err := egressAddr("127.0.0.1", 9)
	if err != nil {
		t.Fatal(err)
	}
	if !ip.IsLoopback() {
		t.Errorf("egress toward loopback = %s, want a loopback address", ip)
	}
	if ip.To4() == nil {
		t.Errorf("egress address %s is not IPv4", ip)
	}
}
