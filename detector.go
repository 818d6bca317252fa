package main

import (
	"fmt"
	"io"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// Runner executes every known detection method against one target,
// strictly in order, and writes the report. The method list is fixed
// at compile time so the set of active probes stays auditable; the
// methods are independent, order only aids reproducibility and keeps
// a single packet in flight at any instant.
type Runner struct {
	target  string
	port    int
	methods []DetectionMethod
}

func NewRunner(target string, port int, laddr net.IP, timeout time.Duration, retries, rate int) *Runner {
	env := probeEnv{
		xcv:     NewRawTransceiver(laddr, rate),
		guard:   guardedPort,
		connect: tcpConnect,
		laddr:   laddr,
		timeout: timeout,
		retries: retries,
	}
	return &Runner{
		target: target,
		port:   port,
		methods: []DetectionMethod{
			NewTCPMalformedOptionsDetection(target, port, env),
			NewTCPDoSDetection(target, port, env),
			NewICMPCodeDetection(target, env),
			NewICMPTimestampDetection(target, env),
		},
	}
}

// Run probes with every method, accumulating scores as each one
// completes. A method that fails to acquire its resources is skipped
// with a diagnostic; the remaining methods still run and report.
func (r *Runner) Run(w io.Writer) Verdict {
	fmt.Fprintf(w, "[~] Running against %s:%d\n", r.target, r.port)

	var verdict Verdict
	for _, method := range r.methods {
		result, err := method.Detect()
		if err != nil {
			log.Warnf("%s aborted: %v", method.Name(), err)
			continue
		}
		verdict.Add(result)
		fmt.Fprintf(w, "\t%-30s\tVxWorks: %d\tIPnet: %d\n",
			method.Name(), result.VxWorksScore, result.IPnetScore)
	}

	switch verdict.IPnet() {
	case Confirmed:
		fmt.Fprintf(w, "[*] IP %s detected as IPnet\n", r.target)
	case Refuted:
		fmt.Fprintf(w, "[*] IP %s detected as NOT IPnet\n", r.target)
	}
	switch verdict.VxWorks() {
	case Confirmed:
		fmt.Fprintf(w, "[*] IP %s detected as VxWorks\n", r.target)
	case Refuted:
		fmt.Fprintf(w, "[*] IP %s detected as NOT VxWorks\n", r.target)
	}
	for _, cve := range verdict.CVEs {
		fmt.Fprintf(w, "[*] IP %s affected by %s\n", r.target, cve)
	}
	return verdict
}
