package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default iteration interval.
const DefaultInterval = 10 * time.Millisecond

// Loop runs controllers periodically in a single goroutine.
// Runnables added to the loop run in the background while the loop runs.
type Loop struct {
	Interval time.Duration
	// Now is the clock, time.Now if nil.
	Now func() time.Time

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	messages []Message
	lock     sync.Mutex
	wakeUpCh chan struct{}
}

// LoopAdder adds itself to a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKey struct{}

// LoopCtlFrom gets the LoopControl of the loop running a Runnable,
// nil if not run by a loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	ctl, _ := ctx.Value(loopCtxKey{}).(LoopControl)
	return ctl
}

// WithLoopCtl attaches a LoopControl to ctx.
func WithLoopCtl(ctx context.Context, ctl LoopControl) context.Context {
	return context.WithValue(ctx, loopCtxKey{}, ctl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add calls AddToLoop of each adder.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController adds controllers on a priority level. Controllers which
// are also Runnable are run in the background.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds background tasks.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(WithLoopCtl(ctx, l))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUp():
		}
		l.Iterate(ctx)
	}
}

// RunOrFail runs the loop from main and exits on failure.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

func (l *Loop) wakeUp() chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	return l.wakeUpCh
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages = append(l.messages, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

// Iterate runs all controllers once with the posted messages. Messages
// not taken by any controller are dropped at the end of the iteration.
func (l *Loop) Iterate(ctx context.Context) {
	it := &iteration{loop: l, ctx: ctx, time: time.Now()}
	if l.Now != nil {
		it.time = l.Now()
	}
	l.lock.Lock()
	it.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	for level, ctls := range l.controllers {
		for _, ctl := range ctls {
			if err := ctl.Control(it); err != nil {
				glog.Errorf("controller error at level %d: %v", level, err)
			}
		}
	}
	if len(it.messages) > 0 {
		glog.V(2).Infof("%d messages dropped", len(it.messages))
	}
}

type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	messages []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) Messages() MessageStore   { return it }
func (it *iteration) PostMessage(msg Message)  { it.loop.PostMessage(msg) }
func (it *iteration) TriggerNext()             { it.loop.TriggerNext() }

type messageContext struct {
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message { return c.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }
func (c *messageContext) StopProcessing()         { c.stop = true }

func (it *iteration) ProcessMessages(proc MessageProcessor) {
	remains := it.messages[:0]
	for n, msg := range it.messages {
		mc := &messageContext{msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, it.messages[n+1:]...)
			break
		}
	}
	it.messages = remains
}
