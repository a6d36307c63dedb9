package telemetry

import (
	"context"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
)

// PublisherMux publishes to all Publishers.
type PublisherMux struct {
	Publishers []Publisher
}

// Publish implements Publisher.
func (m *PublisherMux) Publish(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, p := range m.Publishers {
		errs.Add(p.Publish(ctx, msg))
	}
	return errs.Aggregate()
}

// Add adds Publishers.
func (m *PublisherMux) Add(pubs ...Publisher) {
	m.Publishers = append(m.Publishers, pubs...)
}

// AddToLoop adds the Publishers which are LoopAdders.
func (m *PublisherMux) AddToLoop(loop *fx.Loop) {
	for _, p := range m.Publishers {
		if adder, ok := p.(fx.LoopAdder); ok {
			loop.Add(adder)
		}
	}
}

// UnsupportedCommands replies commands no controller took.
type UnsupportedCommands struct{}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if cmd, ok := mc.CurrentMessage().(*CommandMsg); ok {
			mc.MessageTaken()
			errs.Add(cmd.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)))
		}
	}))
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
