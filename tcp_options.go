package main

import (
	"net"

	"github.com/tevino/abool"
)

// Score contributions of the malformed-options probe. Silence is weak
// evidence for IPnet (firewalled hosts stay silent too, hence no OS
// claim), a RST on the exact port pair is the IPnet/VxWorks signature,
// anything else means the stack tolerated the broken option.
const (
	malformedSilenceScore = 50
	malformedMatchScore   = 100
	malformedMissScore    = -100
)

// TCPMalformedOptionsDetection sends a SYN whose window-scale option
// is truncated and judges the target by whether it rejects the whole
// segment. IPnet drops the packet and, in the builds VxWorks ships,
// answers with a RST; other tested stacks skip the malformed option
// and go on to parse the valid one that follows it.
type TCPMalformedOptionsDetection struct {
	target string
	port   int
	env    probeEnv
	done   *abool.AtomicBool
}

func NewTCPMalformedOptionsDetection(target string, port int, env probeEnv) *TCPMalformedOptionsDetection {
	return &TCPMalformedOptionsDetection{target: target, port: port, env: env, done: abool.New()}
}

func (d *TCPMalformedOptionsDetection) Name() string { return "TcpMalformedOptionsDetection" }

func (d *TCPMalformedOptionsDetection) Detect() (DetectionResult, error) {
	if !d.done.SetToIf(false, true) {
		return DetectionResult{}, errDetectTwice
	}
	srcPort, release, err := d.env.guard()
	if err != nil {
		return DetectionResult{}, err
	}
	defer release()

	dst := net.ParseIP(d.target).To4()
	payload, err := buildMalformedOptionsSYN(d.env.laddr, dst, srcPort, d.port)
	if err != nil {
		return DetectionResult{}, err
	}
	probe := &Probe{
		Proto:   protoTCP,
		DstIP:   dst,
		Payload: payload,
		Match: func(r *Reply) bool {
			return r.TCP != nil && r.Src.Equal(dst) && int(r.TCP.DstPort) == srcPort
		},
	}
	reply, err := sendWithRetransmit(d.env.xcv, probe, d.env.timeout, d.env.retries)
	if err != nil {
		return DetectionResult{}, err
	}
	return scoreMalformedOptions(reply, d.port, srcPort), nil
}

// scoreMalformedOptions converts the observed reply into scores. Kept
// pure so the decision table is testable without a network.
func scoreMalformedOptions(reply *Reply, dport, sport int) DetectionResult {
	switch {
	case reply == nil:
		return DetectionResult{IPnetScore: malformedSilenceScore}
	case reply.TCP != nil && reply.TCP.RST && validPorts(reply.TCP, dport, sport):
		return DetectionResult{IPnetScore: malformedMatchScore, VxWorksScore: malformedMatchScore}
	}
	return DetectionResult{IPnetScore: malformedMissScore, VxWorksScore: malformedMissScore}
}
