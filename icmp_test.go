package main

import (
	"errors"
	"testing"
)

func TestScoreICMPCode(t *testing.T) {
	tests := []struct {
		name  string
		reply *Reply
		want  int
	}{
		{"no reply", nil, 0},
		{"code zeroed", icmpReply(testTarget, 0, 0), 20},
		{"code echoed back", icmpReply(testTarget, 0, echoProbeCode), -20},
		{"other nonzero code", icmpReply(testTarget, 0, 1), -20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreICMPCode(tc.reply)
			if got.IPnetScore != tc.want {
				t.Errorf("IPnet score = %d, want %d", got.IPnetScore, tc.want)
			}
			if got.VxWorksScore != 0 || len(got.CVEs) != 0 {
				t.Errorf("result = %+v, want only the IPnet score set", got)
			}
		})
	}
}

func TestScoreICMPTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		reply *Reply
		want  int
	}{
		{"no reply", nil, 0},
		{"timestamp reply despite truncation", icmpReply(testTarget, 14, 0), 90},
		{"echo reply instead", icmpReply(testTarget, 0, 0), -30},
		{"dest unreachable", icmpReply(testTarget, 3, 2), -30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreICMPTimestamp(tc.reply)
			if got.IPnetScore != tc.want {
				t.Errorf("IPnet score = %d, want %d", got.IPnetScore, tc.want)
			}
			if got.VxWorksScore != 0 || len(got.CVEs) != 0 {
				t.Errorf("result = %+v, want only the IPnet score set", got)
			}
		})
	}
}

func TestICMPMethodsSendExactlyOnce(t *testing.T) {
	// No retransmission on silence for either ICMP method, even with
	// retries configured.
	var releases, closes int
	xcv := &fakeTransceiver{}
	env := testEnv(xcv, &releases, &closes)

	if _, err := NewICMPCodeDetection(testTarget, env).Detect(); err != nil {
		t.Fatal(err)
	}
	if xcv.calls != 1 {
		t.Errorf("code probe sends = %d, want 1", xcv.calls)
	}

	xcv.calls = 0
	xcv.probes = nil
	if _, err := NewICMPTimestampDetection(testTarget, env).Detect(); err != nil {
		t.Fatal(err)
	}
	if xcv.calls != 1 {
		t.Errorf("timestamp probe sends = %d, want 1", xcv.calls)
	}
	if got := xcv.probes[0].Payload; len(got) != 8 || got[0] != 13 {
		t.Errorf("timestamp probe payload = %x, want truncated type 13 literal", got)
	}
}

func TestICMPMethodsSingleUse(t *testing.T) {
	var releases, closes int
	env := testEnv(&fakeTransceiver{}, &releases, &closes)

	code := NewICMPCodeDetection(testTarget, env)
	if _, err := code.Detect(); err != nil {
		t.Fatal(err)
	}
	if _, err := code.Detect(); !errors.Is(err, errDetectTwice) {
		t.Errorf("second Detect error = %v, want errDetectTwice", err)
	}

	ts := NewICMPTimestampDetection(testTarget, env)
	if _, err := ts.Detect(); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Detect(); !errors.Is(err, errDetectTwice) {
		t.Errorf("second Detect error = %v, want errDetectTwice", err)
	}
}
