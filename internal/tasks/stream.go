// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// STREAM PUMP
// =============================================================================

// pump copies src to emit in raw chunks. Chunks are not split on lines; the
// pane reassembles lines itself. Reads arriving faster than maxFPS are
// coalesced, and a ticker flushes whatever is held so output never stalls.
type pump struct {
	chunkSize int
	interval  time.Duration
	limiter   *rate.Limiter
}

func newPump(maxFPS, chunkSize int) *pump {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	p := &pump{chunkSize: chunkSize, limiter: rate.NewLimiter(rate.Inf, 1)}
	if maxFPS > 0 {
		p.interval = time.Second / time.Duration(maxFPS)
		p.limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	}
	return p
}

type chunk struct {
	data []byte
	err  error
}

// run streams src until EOF, a read error, or ctx is done. EOF is not an error.
func (p *pump) run(ctx context.Context, src io.Reader, emit func(string)) error {
	chunks := make(chan chunk, 16)
	go func() {
		defer close(chunks)
		for {
			buf := make([]byte, p.chunkSize)
			n, err := src.Read(buf)
			if n > 0 {
				select {
				case chunks <- chunk{data: buf[:n]}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				select {
				case chunks <- chunk{err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	var held []byte
	flush := func() {
		if len(held) > 0 {
			emit(string(held))
			held = held[:0]
		}
	}

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()

		case <-tick:
			flush()

		case c, ok := <-chunks:
			if !ok {
				flush()
				return ctx.Err()
			}
			if c.err != nil {
				flush()
				if isEndOfStream(c.err) {
					return nil
				}
				return c.err
			}
			held = append(held, c.data...)
			if p.limiter.Allow() {
				flush()
			}
		}
	}
}

// isEndOfStream treats EOF and a pipe closed underneath the reader as a
// normal end of output.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
