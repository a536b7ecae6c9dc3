package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures batching in AsyncWriter.
type AsyncOptions struct {
	BufferSize     int           // Max events queued before Store falls back to a direct write
	BatchSize      int           // Flush as soon as this many events are queued
	BatchTimeout   time.Duration // Flush partial batches after this long
	StorageTimeout time.Duration // Deadline for each batch write
}

// AsyncWriter groups events into batches for a BatchStorage. Store blocks
// until the batch holding the event has been written, so callers still see
// write errors.
type AsyncWriter struct {
	storage BatchStorage
	queue   chan pending
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	opts    AsyncOptions
}

type pending struct {
	event  Event
	result chan error
}

// NewAsyncWriter starts the batching goroutine. Close must be called on
// shutdown to flush what is queued.
func NewAsyncWriter(storage BatchStorage, opts AsyncOptions) *AsyncWriter {
	if storage == nil {
		panic("audit: batch storage cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	w := &AsyncWriter{
		storage: storage,
		queue:   make(chan pending, opts.BufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		opts:    opts,
	}

	go w.run()

	return w
}

// Store implements Storage.
func (w *AsyncWriter) Store(ctx context.Context, event Event) error {
	p := pending{event: event, result: make(chan error, 1)}

	select {
	case <-w.done:
		return ErrStorageNotAvailable
	default:
	}

	select {
	case w.queue <- p:
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full: write through rather than drop the event.
		return w.storage.StoreBatch(ctx, []Event{event})
	}

	select {
	case err := <-p.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		select {
		case err := <-p.result:
			return err
		default:
			return ErrStorageNotAvailable
		}
	}
}

func (w *AsyncWriter) run() {
	defer close(w.stopped)

	batch := make([]pending, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		// Detached from callers so one cancelled request does not fail the batch.
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		defer cancel()

		events := make([]Event, len(batch))
		for i, p := range batch {
			events[i] = p.event
		}
		err := w.storage.StoreBatch(ctx, events)
		for _, p := range batch {
			p.result <- err
		}
		batch = batch[:0]
	}

	for {
		select {
		case p := <-w.queue:
			batch = append(batch, p)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case p := <-w.queue:
					batch = append(batch, p)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and waits for queued ones to be written or
// for ctx to expire.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.once.Do(func() { close(w.done) })

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
