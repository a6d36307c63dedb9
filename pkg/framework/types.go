// Package framework provides the control loop which serializes all
// accesses to a receiver session, and helpers to run background tasks.
package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name.
type Named interface {
	Name() string
}

// Runnable is a background task.
type Runnable interface {
	Run(context.Context) error
}

// Message is consumed by controllers in the loop.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the context of one loop iteration.
type ControlContext interface {
	// Context is canceled when the loop stops.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Messages are the messages posted before the iteration started.
	Messages() MessageStore

	LoopControl
}

// LoopControl is used outside the loop goroutine to feed the loop.
type LoopControl interface {
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the interval.
	TriggerNext()
}

// Priority levels, controllers on lower levels run first.
const (
	PrLvSense int = iota
	PrLvControl
	PrLvActuate
	PrLvIdle

	PriorityLevels
)

// MessageStore gives access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages passes each message to the processor in order.
	ProcessMessages(MessageProcessor)
}

// MessageProcessor inspects messages in a MessageStore.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the state of processing one message.
type MessageProcessingContext interface {
	// CurrentMessage is the message being processed.
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
