// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"sync"
)

// Event is a progress notification from an orchestration run.
type Event interface {
	event()
}

// PlanEvent carries the manager's plan, emitted at the start of the run and
// again after every reset.
type PlanEvent struct {
	Plan string
}

// InstructionEvent carries one instruction handed to the worker.
type InstructionEvent struct {
	Round       int
	Instruction string
}

// WorkerReplyEvent carries the worker's reply for one round.
type WorkerReplyEvent struct {
	Round int
	Reply string
}

// ResetEvent signals that the transcript was cleared and planning starts over.
type ResetEvent struct {
	Resets int
}

// FinalEvent carries the manager's final answer.
type FinalEvent struct {
	Answer string
	Rounds int
	Resets int
}

func (PlanEvent) event()        {}
func (InstructionEvent) event() {}
func (WorkerReplyEvent) event() {}
func (ResetEvent) event()       {}
func (FinalEvent) event()       {}

// EventStream is a pull-based iterator over orchestration events. It wraps a
// channel internally but exposes a cleaner API with error propagation and
// cleanup guarantees.
//
// Callers must call Close when done, or use a context with cancellation.
type EventStream struct {
	ch        <-chan Event
	errCh     <-chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	err       error
}

// newEventStream runs producer in a goroutine. The producer sends events to
// the channel and returns any error; the channel is closed automatically
// when the producer returns.
func newEventStream(ctx context.Context, producer func(ctx context.Context, ch chan<- Event) error) *EventStream {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		if err := producer(ctx, ch); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return &EventStream{
		ch:     ch,
		errCh:  errCh,
		cancel: cancel,
	}
}

// Next returns the next event from the stream.
// ok is false when the stream is exhausted. err is non-nil on failure.
func (s *EventStream) Next(ctx context.Context) (event Event, ok bool, err error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case e, open := <-s.ch:
		if !open {
			select {
			case producerErr := <-s.errCh:
				s.err = producerErr
			default:
			}
			return nil, false, s.err
		}
		return e, true, nil
	}
}

// Final drains the stream and returns the run result carried by the last
// FinalEvent.
func (s *EventStream) Final(ctx context.Context) (*Result, error) {
	var final *FinalEvent
	for {
		event, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if f, isFinal := event.(FinalEvent); isFinal {
			final = &f
		}
	}
	if final == nil {
		return nil, fmt.Errorf("%w: run ended without an answer", ErrStalled)
	}
	return &Result{Answer: final.Answer, Rounds: final.Rounds, Resets: final.Resets}, nil
}

// Close cancels the producer and releases resources.
// Safe to call multiple times.
func (s *EventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		for range s.ch {
		}
		select {
		case e := <-s.errCh:
			if s.err == nil {
				s.err = e
			}
		default:
		}
	})
	return nil
}
