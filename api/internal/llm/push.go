package llm

import (
	"context"
	"io"
	"sync"
)

// EmitFunc hands one fragment to the consumer. It returns false once the
// consumer has gone away, after which the producer should stop.
type EmitFunc func(fragment string) bool

// NewPushStream adapts a callback-style producer to Stream. run is executed
// on its own goroutine; fragments are handed over unbuffered so ordering is
// preserved. Close cancels run and waits for it to return.
func NewPushStream(ctx context.Context, run func(ctx context.Context, emit EmitFunc) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &pushStream{
		chunks: make(chan string),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(s.done)
		s.err = run(ctx, func(fragment string) bool {
			select {
			case s.chunks <- fragment:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return s
}

type pushStream struct {
	chunks chan string
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	once   sync.Once
}

func (s *pushStream) Recv() (string, error) {
	select {
	case f := <-s.chunks:
		return f, nil
	case <-s.done:
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
}

func (s *pushStream) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}
