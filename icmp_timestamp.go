package main

import (
	"net"

	"github.com/google/gopacket/layers"
	"github.com/tevino/abool"
)

const (
	icmpTimestampAnswerScore = 90
	icmpTimestampOtherScore  = -30
)

// ICMPTimestampDetection sends a timestamp request truncated below the
// protocol minimum. Most stacks discard it silently; IPnet answers
// anyway, so a timestamp reply is a strong stack signal. Single
// packet, no retransmission.
type ICMPTimestampDetection struct {
	target string
	env    probeEnv
	done   *abool.AtomicBool
}

func NewICMPTimestampDetection(target string, env probeEnv) *ICMPTimestampDetection {
	return &ICMPTimestampDetection{target: target, env: env, done: abool.New()}
}

func (d *ICMPTimestampDetection) Name() string { return "IcmpTimestampDetection" }

func (d *ICMPTimestampDetection) Detect() (DetectionResult, error) {
	if !d.done.SetToIf(false, true) {
		return DetectionResult{}, errDetectTwice
	}
	dst := net.ParseIP(d.target).To4()
	probe := &Probe{
		Proto:   protoICMP,
		DstIP:   dst,
		Payload: icmpTimestampTruncated,
		Match: func(r *Reply) bool {
			return r.ICMP != nil && r.Src.Equal(dst)
		},
	}
	reply, err := d.env.xcv.SendAndAwait(probe, d.env.timeout)
	if err != nil {
		return DetectionResult{}, err
	}
	return scoreICMPTimestamp(reply), nil
}

// scoreICMPTimestamp is a pure function of (reply present, reply type).
func scoreICMPTimestamp(reply *Reply) DetectionResult {
	switch {
	case reply == nil || reply.ICMP == nil:
		return DetectionResult{}
	case reply.ICMP.TypeCode.Type() == layers.ICMPv4TypeTimestampReply:
		return DetectionResult{IPnetScore: icmpTimestampAnswerScore}
	}
	return DetectionResult{IPnetScore: icmpTimestampOtherScore}
}
