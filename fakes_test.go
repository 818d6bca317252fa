package main

import (
	"errors"
	"net"
	"time"

	"github.com/google/gopacket/layers"
)

// fakeTransceiver returns scripted replies, one per SendAndAwait call.
// An exhausted script means silence, which is how the no-response
// scenarios are expressed.
type fakeTransceiver struct {
	replies []*Reply
	calls   int
	probes  []*Probe
}

func (f *fakeTransceiver) SendAndAwait(p *Probe, _ time.Duration) (*Reply, error) {
	f.calls++
	f.probes = append(f.probes, p)
	if len(f.replies) == 0 {
		return nil, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type failingTransceiver struct{ calls int }

func (f *failingTransceiver) SendAndAwait(*Probe, time.Duration) (*Reply, error) {
	f.calls++
	return nil, errors.New("raw socket unavailable")
}

const (
	testTarget    = "192.0.2.1"
	testPort      = 8080
	testGuardPort = 40000
	testConnPort  = 40001
)

// testEnv wires fakes for everything a method touches. The guard and
// connector report their teardown through the counters.
func testEnv(xcv Transceiver, guardReleases, connCloses *int) probeEnv {
	return probeEnv{
		xcv: xcv,
		guard: func() (int, func(), error) {
			return testGuardPort, func() { *guardReleases++ }, nil
		},
		connect: func(string, int, time.Duration) (int, int, func(), error) {
			return testConnPort, testPort, func() { *connCloses++ }, nil
		},
		laddr:   net.ParseIP("192.0.2.100").To4(),
		timeout: time.Millisecond,
		retries: 3,
	}
}

func tcpReply(src string, sport, dport int, rst bool) *Reply {
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		RST:     rst,
	}
	if !rst {
		tcp.SYN = true
		tcp.ACK = true
	}
	return &Reply{Src: net.ParseIP(src), TCP: tcp}
}

func icmpReply(src string, typ, code uint8) *Reply {
	return &Reply{
		Src:  net.ParseIP(src),
		ICMP: &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(typ, code)},
	}
}

func testRunner(env probeEnv) *Runner {
	return &Runner{
		target: testTarget,
		port:   testPort,
		methods: []DetectionMethod{
			NewTCPMalformedOptionsDetection(testTarget, testPort, env),
			NewTCPDoSDetection(testTarget, testPort, env),
			NewICMPCodeDetection(testTarget, env),
			NewICMPTimestampDetection(testTarget, env),
		},
	}
}
