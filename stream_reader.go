/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"context"
)

// StreamResult is a single event delivered by ReadStream, or a terminal
// error when Err is set.
type StreamResult[T any] struct {
	Event   T
	Version int64
	Err     error
}

// readOptions configures streaming reads.
type readOptions struct {
	bufferSize int
	sliceSize  int
}

// ReadOption is a functional option for configuring ReadStream.
type ReadOption func(*readOptions)

// WithBufferSize sets the result channel's buffer size (default 100).
func WithBufferSize(size int) ReadOption {
	return func(o *readOptions) {
		o.bufferSize = size
	}
}

// WithSliceSize sets how many events each underlying slice read fetches
// (default DefaultSliceSize).
func WithSliceSize(size int) ReadOption {
	return func(o *readOptions) {
		o.sliceSize = size
	}
}

// ReadStream delivers the stream's events from startVersion onward over a
// channel, reading slice after slice until the end of the stream, the
// context is done, or a read fails. A failure is delivered as the final
// item with Err set; the channel is closed in every case.
//
// This is pagination, not subscription: the reader stops at the stream's
// version as of the last slice and does not wait for future appends.
func ReadStream[T any](ctx context.Context, p *Partition, startVersion int64, opts ...ReadOption) <-chan StreamResult[T] {
	options := readOptions{bufferSize: 100, sliceSize: DefaultSliceSize}
	for _, opt := range opts {
		opt(&options)
	}

	results := make(chan StreamResult[T], options.bufferSize)
	go streamWorker(ctx, p, startVersion, options, results)
	return results
}

func streamWorker[T any](ctx context.Context, p *Partition, startVersion int64, options readOptions, results chan<- StreamResult[T]) {
	defer close(results)

	version := startVersion
	for {
		slice, err := Read[T](ctx, p, version, options.sliceSize)
		if err != nil {
			select {
			case <-ctx.Done():
			case results <- StreamResult[T]{Err: err}:
			}
			return
		}

		for i, event := range slice.Events {
			select {
			case <-ctx.Done():
				return
			case results <- StreamResult[T]{Event: event, Version: version + int64(i)}:
			}
		}

		if slice.IsEndOfStream {
			return
		}
		version += int64(len(slice.Events))
	}
}
