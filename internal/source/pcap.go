package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// pcapngMagic is the section header block type that opens a pcapng file.
const pcapngMagic = 0x0A0D0D0A

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// ReadPCAP reads a classic pcap or pcapng capture from r and returns the UDP
// payloads in capture order, one per line, along with how many were kept.
// Non-UDP packets and payloads on other ports are skipped.
func ReadPCAP(ctx context.Context, r io.Reader, udpPort int) (string, int, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read capture header: %w", err)
	}

	var (
		src      packetReader
		linkType layers.LinkType
	)
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return "", 0, fmt.Errorf("failed to open pcapng capture: %w", err)
		}
		src, linkType = ng, ng.LinkType()
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			return "", 0, fmt.Errorf("failed to open pcap capture: %w", err)
		}
		src, linkType = pr, pr.LinkType()
	}

	var (
		b           strings.Builder
		packetCount int
		kept        int
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", kept, err
		}
		data, _, err := src.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", kept, fmt.Errorf("failed to read packet %d: %w", packetCount+1, err)
		}
		packetCount++

		packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		if udpPort != 0 && int(udp.DstPort) != udpPort && int(udp.SrcPort) != udpPort {
			continue
		}

		b.WriteString(Sanitize(bytes.TrimRight(udp.Payload, "\x00")))
		b.WriteByte('\n')
		kept++
	}
	log.Debugf("capture: %d packets, %d UDP payloads kept", packetCount, kept)
	return b.String(), kept, nil
}
