package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// ConfigSpec carries the ambient tuning knobs. Defaults match the
// published detection methodology; the CLI itself takes only the
// target host and port.
type ConfigSpec struct {
	LogLevel        string
	PacketTimeout   time.Duration `default:"500ms"`
	Retransmissions int           `default:"3"`
	ProbeRate       int           `default:"100"`
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <host> <port>\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Fingerprints the target's TCP/IP stack for IPnet/VxWorks and")
	fmt.Fprintln(os.Stderr, "tests for CVE-2019-12258. host must be an IPv4 literal.")
	os.Exit(2)
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stderr)

	var cs ConfigSpec
	if err := envconfig.Process("urgent11", &cs); err != nil {
		log.Fatal(err)
	}
	switch cs.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	if len(os.Args) != 3 {
		usage()
	}
	host := os.Args[1]
	port, err := strconv.Atoi(os.Args[2])
	if err != nil || port < 1 || port > 65535 {
		usage()
	}
	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		usage()
	}

	if !isPortReachable(host, port, cs.PacketTimeout) || isLocalIP(host) {
		fmt.Println("[!] IP or port is unreachable/local, please verify input")
		return
	}

	laddr, err := egressAddr(host, port)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("probing from local address %s", laddr)

	runner := NewRunner(host, port, laddr, cs.PacketTimeout, cs.Retransmissions, cs.ProbeRate)
	runner.Run(os.Stdout)
}
