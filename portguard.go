package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/coreos/go-iptables/iptables"
	log "github.com/sirupsen/logrus"
)

// guardFunc reserves a local source port with kernel replies
// suppressed and returns it together with its release function.
type guardFunc func() (int, func(), error)

// guardedPort binds a kernel-assigned free TCP port and installs an
// iptables rule dropping all inbound TCP to it, so only our raw
// sockets see the probe replies. The reserving listener stays open
// until release so the kernel cannot hand the port to anyone else
// mid-probe.
//
// Fails closed: if the rule cannot be installed no port is yielded.
// An unsuppressed port would let the local stack RST our crafted
// flows and corrupt every method's scoring.
func guardedPort() (int, func(), error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, nil, fmt.Errorf("reserving source port: %w", err)
	}
	port := l.Addr().(*net.TCPAddr).Port

	ipt, err := iptables.New()
	if err != nil {
		l.Close()
		return 0, nil, fmt.Errorf("opening iptables: %w", err)
	}
	rule := []string{"-p", "tcp", "--dport", strconv.Itoa(port), "-j", "DROP"}
	if err := ipt.Insert("filter", "INPUT", 1, rule...); err != nil {
		l.Close()
		return 0, nil, fmt.Errorf("installing suppression rule for port %d: %w", port, err)
	}
	log.Debugf("guarding source port %d", port)

	release := func() {
		if err := ipt.Delete("filter", "INPUT", rule...); err != nil {
			log.Warnf("removing suppression rule for port %d: %v", port, err)
		}
		l.Close()
	}
	return port, release, nil
}
