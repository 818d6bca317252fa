package main

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/net/ipv4"
)

const (
	protoTCP  = "tcp"
	protoICMP = "icmp"
)

// Probe is one crafted transport-layer packet plus the predicate that
// correlates a raw reply back to it.
type Probe struct {
	Proto   string // protoTCP or protoICMP
	DstIP   net.IP
	Payload []byte
	Match   func(*Reply) bool
}

// Reply is a decoded response. Exactly one of TCP/ICMP is set,
// according to the probe's protocol.
type Reply struct {
	Src  net.IP
	TCP  *layers.TCP
	ICMP *layers.ICMPv4
}

// Transceiver sends one crafted packet and waits for a single
// correlated reply. A nil reply with a nil error means the timeout
// elapsed in silence; several methods treat that as signal, not
// failure.
type Transceiver interface {
	SendAndAwait(p *Probe, timeout time.Duration) (*Reply, error)
}

// RawTransceiver sends over raw IPv4 sockets and reads replies off the
// same socket until the deadline. One packet in flight at a time.
type RawTransceiver struct {
	laddr   net.IP
	limiter ratelimit.Limiter
}

func NewRawTransceiver(laddr net.IP, rate int) *RawTransceiver {
	return &RawTransceiver{laddr: laddr, limiter: ratelimit.New(rate)}
}

func (t *RawTransceiver) SendAndAwait(p *Probe, timeout time.Duration) (*Reply, error) {
	conn, err := net.ListenPacket("ip4:"+p.Proto, "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("opening raw %s socket: %w", p.Proto, err)
	}
	defer conn.Close()
	raw, err := ipv4.NewRawConn(conn)
	if err != nil {
		return nil, fmt.Errorf("wrapping raw %s socket: %w", p.Proto, err)
	}

	proto := int(layers.IPProtocolTCP)
	if p.Proto == protoICMP {
		proto = int(layers.IPProtocolICMPv4)
	}
	hdr := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(p.Payload),
		TTL:      64,
		Protocol: proto,
		Src:      t.laddr,
		Dst:      p.DstIP,
	}

	t.limiter.Take()
	if err := raw.WriteTo(hdr, p.Payload, nil); err != nil {
		return nil, fmt.Errorf("sending %s probe to %s: %w", p.Proto, p.DstIP, err)
	}
	log.Debugf("sent %d byte %s probe to %s", len(p.Payload), p.Proto, p.DstIP)

	deadline := time.Now().Add(timeout)
	if err := raw.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	buf := make([]byte, 1500)
	for {
		h, payload, _, err := raw.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, nil
			}
			return nil, fmt.Errorf("reading %s reply: %w", p.Proto, err)
		}
		reply := decodeReply(p.Proto, h, payload)
		if reply == nil || !p.Match(reply) {
			continue
		}
		return reply, nil
	}
}

func decodeReply(proto string, h *ipv4.Header, payload []byte) *Reply {
	reply := &Reply{Src: h.Src}
	switch proto {
	case protoTCP:
		pkt := gopacket.NewPacket(payload, layers.LayerTypeTCP, gopacket.NoCopy)
		l := pkt.Layer(layers.LayerTypeTCP)
		if l == nil {
			return nil
		}
		reply.TCP = l.(*layers.TCP)
	case protoICMP:
		pkt := gopacket.NewPacket(payload, layers.LayerTypeICMPv4, gopacket.NoCopy)
		l := pkt.Layer(layers.LayerTypeICMPv4)
		if l == nil {
			return nil
		}
		reply.ICMP = l.(*layers.ICMPv4)
	default:
		return nil
	}
	return reply
}

// sendWithRetransmit resends the probe on total silence only, up to
// attempts times, returning the first reply seen. A received reply is
// final even when it is not the one the caller hoped for: only the
// first raw answer is worth inspecting.
func sendWithRetransmit(xcv Transceiver, p *Probe, timeout time.Duration, attempts int) (*Reply, error) {
	for i := 0; i < attempts; i++ {
		reply, err := xcv.SendAndAwait(p, timeout)
		if err != nil {
			return nil, err
		}
		if reply != nil {
			return reply, nil
		}
		log.Debugf("no reply within %v (attempt %d/%d)", timeout, i+1, attempts)
	}
	return nil, nil
}
