package mqtt

import (
	"context"
	"io"
)

// ReadWriter implements telemetry.PacketReadWriter on two topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
}

// NewPacketReadWriter creates a ReadWriter.
func NewPacketReadWriter(q *Queue, sub, pub string) *ReadWriter {
	return &ReadWriter{Queue: q, SubTopic: sub, PubTopic: pub, packetCh: make(chan []byte, 16)}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. Packets are received while running.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.received)
	<-ctx.Done()
	sub.Close()
	close(p.packetCh)
	return ctx.Err()
}

func (p *ReadWriter) received(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	default:
	}
}
