package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

// Topic suffixes under the receiver name.
const (
	TopicMeta = "/meta"
	TopicMsg  = "/msg"
	TopicCmd  = "/cmd"
)

// Meta is published retained on the meta topic while connected.
type Meta struct {
	Description string            `json:"description,omitempty"`
	BindMode    string            `json:"bind-mode,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Publisher publishes events on <name>/msg and receives commands
// on <name>/cmd.
type Publisher struct {
	Queue *Queue
	Name  string

	meta []byte
	pipe *telemetry.Pipe
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL, name string, meta Meta) (*Publisher, error) {
	data, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+name+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("spektrum:" + name)
	}
	p := &Publisher{Queue: NewQueue(opts, prefix), Name: name, meta: data}
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(p.Name+TopicMeta, p.meta, 1, true)
	}
	p.pipe = telemetry.NewPipe(NewPacketReadWriter(p.Queue, name+TopicCmd, name+TopicMsg))
	return p, nil
}

// Publish implements telemetry.Publisher.
func (p *Publisher) Publish(ctx context.Context, msg fx.Message) error {
	if !p.Queue.Client.IsConnected() {
		return nil
	}
	return p.pipe.Publish(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.Add(p.pipe)
	loop.AddRunnable(fx.NamedRun("mqtt", p))
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Name+TopicMeta, nil, 1, true).Wait()
	return p.Queue.Close()
}
