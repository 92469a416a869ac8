package transport

import (
	"context"
	"sync"
)

// Queue is a bounded frame queue between a transport's producer goroutines
// and the single consumer reading a Receiver.
//
// The capacity is the high-water mark. Push blocks while the queue is full.
// Close wakes every blocked Push and Pop; frames still queued are dropped.
type Queue struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
	err    error
}

// NewQueue creates a queue holding at most hwm frames. Values below 1 use DefaultHighWaterMark.
func NewQueue(hwm int) *Queue {
	if hwm < 1 {
		hwm = DefaultHighWaterMark
	}
	return &Queue{
		frames: make(chan []byte, hwm),
		done:   make(chan struct{}),
	}
}

// Push enqueues frame, blocking while the queue is at its high-water mark.
func (q *Queue) Push(ctx context.Context, frame []byte) error {
	select {
	case <-q.done:
		return q.err
	default:
	}

	select {
	case q.frames <- frame:
		return nil
	case <-q.done:
		return q.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the next frame, blocking until one is available.
//
// After the queue is closed Pop returns the close error even if frames remain.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-q.done:
		return nil, q.err
	default:
	}

	select {
	case frame := <-q.frames:
		return frame, nil
	case <-q.done:
		return nil, q.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the queue with ErrClosed.
func (q *Queue) Close() {
	q.CloseWithError(nil)
}

// CloseWithError closes the queue so Push and Pop return err. A nil err means ErrClosed.
// Only the first call has any effect.
func (q *Queue) CloseWithError(err error) {
	q.once.Do(func() {
		if err == nil {
			err = ErrClosed
		}
		q.err = err
		close(q.done)
	})
}

// Done is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	return len(q.frames)
}

// Cap returns the high-water mark.
func (q *Queue) Cap() int {
	return cap(q.frames)
}

// QueueReceiver is a Receiver backed by a Queue, for transports whose frames
// arrive on background goroutines.
type QueueReceiver struct {
	queue    *Queue
	addr     string
	release  func() error
	once     sync.Once
	closeErr error
}

// NewQueueReceiver creates a Receiver reading from queue. release, if not nil,
// is called once on Close to free the underlying socket or server.
func NewQueueReceiver(queue *Queue, addr string, release func() error) *QueueReceiver {
	return &QueueReceiver{queue: queue, addr: addr, release: release}
}

// Receive returns the next frame from the queue.
func (r *QueueReceiver) Receive(ctx context.Context) ([]byte, error) {
	return r.queue.Pop(ctx)
}

// Close closes the queue then releases the transport. Repeated calls return the first result.
func (r *QueueReceiver) Close() error {
	r.once.Do(func() {
		r.queue.Close()
		if r.release != nil {
			r.closeErr = r.release()
		}
	})
	return r.closeErr
}

// Addr returns the bound address.
func (r *QueueReceiver) Addr() string {
	return r.addr
}

// Queue returns the underlying queue.
func (r *QueueReceiver) Queue() *Queue {
	return r.queue
}
