package stream

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestReadWriterPackets(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte("abc")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)

	buf.Write([]byte{5, 0, 0, 0, 1})
	_, err = rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)

	buf.Reset()
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	_, err = rw.ReadPacket()
	require.Error(t, err)
}

func TestRecorderReplay(t *testing.T) {
	buf := nopCloser{&bytes.Buffer{}}
	r := NewRecorder(buf)
	events := []fx.Message{
		&msgs.ReceiverStatus{Status: "receiving", Connected: true, Frames: 10},
		&msgs.ChannelFrame{System: 0xb2, Raw: []uint32{1, 2}},
	}
	for _, ev := range events {
		require.NoError(t, r.Publish(context.Background(), ev))
	}
	var replayed []fx.Message
	require.NoError(t, Replay(bytes.NewReader(buf.Bytes()), func(typed *msgs.Typed, msg fx.Message) error {
		require.True(t, typed.IsEvent())
		replayed = append(replayed, msg)
		return nil
	}))
	require.Equal(t, events, replayed)
	require.NoError(t, r.Close())
}

func TestRotatingFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "events.rec")
	f := NewRotatingFile(FileConfig{Path: fn, MaxSizeMB: 1})
	r := NewRecorder(f)
	require.NoError(t, r.Publish(context.Background(), &msgs.Bind{Mode: "internal-dsmx-11ms"}))
	require.NoError(t, r.Close())

	var got []fx.Message
	require.NoError(t, ReplayFile(fn, func(_ *msgs.Typed, msg fx.Message) error {
		got = append(got, msg)
		return nil
	}))
	require.Equal(t, []fx.Message{&msgs.Bind{Mode: "internal-dsmx-11ms"}}, got)
}
