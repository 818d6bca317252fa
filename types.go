package main

import (
	"errors"
	"net"
	"time"
)

const (
	// The only vulnerability this tool confirms: a stateful-connection
	// reset reachable through IPnet's TCP option parsing.
	cveURGENT11DoS = "CVE-2019-12258"

	// Aggregate classification thresholds. The VxWorks threshold is
	// deliberately higher: naming the specific OS requires more than a
	// single method's best score, naming the stack does not.
	ipnetThreshold   = 0
	vxworksThreshold = 100
)

var errDetectTwice = errors.New("detection method already invoked")

// DetectionResult is the immutable outcome of one detection method
// run. Scores are signed confidence values in [-100, 100]; CVEs holds
// identifiers the probe proved exploitable.
type DetectionResult struct {
	IPnetScore   int
	VxWorksScore int
	CVEs         []string
}

// DetectionMethod is a single-shot probe-and-judge procedure bound to
// one target. Detect may be invoked at most once per instance; a
// second call fails with errDetectTwice.
type DetectionMethod interface {
	Name() string
	Detect() (DetectionResult, error)
}

// probeEnv bundles the collaborators a detection method probes
// through. The runner wires the real implementations; tests swap in
// fakes.
type probeEnv struct {
	xcv     Transceiver
	guard   guardFunc
	connect connectFunc
	laddr   net.IP
	timeout time.Duration
	retries int
}

// Claim is a three-valued classification outcome.
type Claim int

const (
	NoClaim Claim = iota
	Confirmed
	Refuted
)

// Verdict accumulates method results over a run. Sum and union only,
// so the method execution order never changes the outcome.
type Verdict struct {
	IPnetScore   int
	VxWorksScore int
	CVEs         []string
}

func (v *Verdict) Add(r DetectionResult) {
	v.IPnetScore += r.IPnetScore
	v.VxWorksScore += r.VxWorksScore
	v.CVEs = append(v.CVEs, r.CVEs...)
}

func classify(score, threshold int) Claim {
	switch {
	case score > threshold:
		return Confirmed
	case score < 0:
		return Refuted
	}
	return NoClaim
}

// IPnet classifies the aggregate stack score.
func (v *Verdict) IPnet() Claim { return classify(v.IPnetScore, ipnetThreshold) }

// VxWorks classifies the aggregate OS score.
func (v *Verdict) VxWorks() Claim { return classify(v.VxWorksScore, vxworksThreshold) }
