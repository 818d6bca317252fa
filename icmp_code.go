package main

import (
	"net"

	"github.com/tevino/abool"
)

const (
	// Code value carried in the echo request. Any nonzero value works;
	// this one is easy to spot in captures.
	echoProbeCode = 0x41

	icmpCodeZeroScore    = 20
	icmpCodeNonzeroScore = -20
)

// ICMPCodeDetection sends an echo request with a nonzero code field.
// The field is meaningless for echo requests; IPnet zeroes it in the
// reply regardless of what came in, while other stacks echo it back.
// Single packet, no retransmission.
type ICMPCodeDetection struct {
	target string
	env    probeEnv
	done   *abool.AtomicBool
}

func NewICMPCodeDetection(target string, env probeEnv) *ICMPCodeDetection {
	return &ICMPCodeDetection{target: target, env: env, done: abool.New()}
}

func (d *ICMPCodeDetection) Name() string { return "IcmpCodeDetection" }

func (d *ICMPCodeDetection) Detect() (DetectionResult, error) {
	if !d.done.SetToIf(false, true) {
		return DetectionResult{}, errDetectTwice
	}
	dst := net.ParseIP(d.target).To4()
	payload, err := buildICMPEcho(echoProbeCode)
	if err != nil {
		return DetectionResult{}, err
	}
	probe := &Probe{
		Proto:   protoICMP,
		DstIP:   dst,
		Payload: payload,
		Match: func(r *Reply) bool {
			return r.ICMP != nil && r.Src.Equal(dst)
		},
	}
	reply, err := d.env.xcv.SendAndAwait(probe, d.env.timeout)
	if err != nil {
		return DetectionResult{}, err
	}
	return scoreICMPCode(reply), nil
}

// scoreICMPCode is a pure function of (reply present, code value).
func scoreICMPCode(reply *Reply) DetectionResult {
	switch {
	case reply == nil || reply.ICMP == nil:
		return DetectionResult{}
	case reply.ICMP.TypeCode.Code() == 0:
		return DetectionResult{IPnetScore: icmpCodeZeroScore}
	}
	return DetectionResult{IPnetScore: icmpCodeNonzeroScore}
}
