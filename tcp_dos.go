package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tevino/abool"
)

const dosMatchScore = 100

// connectFunc establishes a legitimate TCP connection and reports the
// port pair it occupies. The connection stays open until the returned
// closer runs; the probe is injected underneath it.
type connectFunc func(target string, port int, timeout time.Duration) (sport, dport int, closer func(), err error)

func tcpConnect(target string, port int, timeout time.Duration) (int, int, func(), error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(target, strconv.Itoa(port)), timeout)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("establishing connection to %s:%d: %w", target, port, err)
	}
	sport := conn.LocalAddr().(*net.TCPAddr).Port
	dport := conn.RemoteAddr().(*net.TCPAddr).Port
	return sport, dport, func() { conn.Close() }, nil
}

// TCPDoSDetection non-destructively exercises CVE-2019-12258. It
// opens a real connection, then sends a SYN on the same port pair
// with sentinel sequence numbers and a truncated window-scale option.
// A vulnerable IPnet resets the connection without ever validating
// seq/ack, which is how an attacker would kill arbitrary established
// connections. The legitimate connection is sacrificed; that reset is
// the whole extent of the damage.
//
// No port guard here: the kernel owns the source port through the
// established connection, which is the point of the test.
type TCPDoSDetection struct {
	target string
	port   int
	env    probeEnv
	done   *abool.AtomicBool
}

func NewTCPDoSDetection(target string, port int, env probeEnv) *TCPDoSDetection {
	return &TCPDoSDetection{target: target, port: port, env: env, done: abool.New()}
}

func (d *TCPDoSDetection) Name() string { return "TcpDosDetection" }

func (d *TCPDoSDetection) Detect() (DetectionResult, error) {
	if !d.done.SetToIf(false, true) {
		return DetectionResult{}, errDetectTwice
	}
	sport, dport, closer, err := d.env.connect(d.target, d.port, d.env.timeout)
	if err != nil {
		return DetectionResult{}, err
	}
	defer closer()

	dst := net.ParseIP(d.target).To4()
	payload, err := buildDoSSYN(d.env.laddr, dst, sport, dport)
	if err != nil {
		return DetectionResult{}, err
	}
	probe := &Probe{
		Proto:   protoTCP,
		DstIP:   dst,
		Payload: payload,
		Match: func(r *Reply) bool {
			return r.TCP != nil && r.Src.Equal(dst) && int(r.TCP.DstPort) == sport
		},
	}
	reply, err := sendWithRetransmit(d.env.xcv, probe, d.env.timeout, d.env.retries)
	if err != nil {
		return DetectionResult{}, err
	}
	return scoreDoS(reply, dport, sport), nil
}

// scoreDoS records the CVE only on a RST matching the reused port
// pair. Silence or any other reply proves nothing either way, so all
// scores stay zero.
func scoreDoS(reply *Reply, dport, sport int) DetectionResult {
	if reply != nil && reply.TCP != nil && reply.TCP.RST && validPorts(reply.TCP, dport, sport) {
		return DetectionResult{
			IPnetScore:   dosMatchScore,
			VxWorksScore: dosMatchScore,
			CVEs:         []string{cveURGENT11DoS},
		}
	}
	return DetectionResult{}
}
