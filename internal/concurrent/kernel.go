// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package concurrent implements the CORE of the threadpool runtime:
// the object lifecycle layer, the pool scheduler, the timer service,
// the wait service and the I/O completion pump.
package concurrent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

func timeUntilMs(deadline time.Time) int64 {
	return time.Until(deadline).Milliseconds()
}

// Waitable is a host-kernel wait primitive: something that becomes
// signaled exactly once per kernel-level event, consumed here only
// through this interface so the CORE never depends on a concrete OS
// object. The default implementation is an eventfd on Linux.
type Waitable interface {
	// FD returns the underlying pollable file descriptor.
	FD() int
	// Close releases the underlying descriptor.
	Close() error
}

// Event is a manual-reset Waitable a producer can Set/Reset, modeling
// the host's event object collaborator.
type Event interface {
	Waitable
	// Set signals the event.
	Set() error
	// Reset clears the event back to non-signaled.
	Reset() error
}

// eventfdEvent is the default Event, backed by an eventfd(2) descriptor
// in EFD_SEMAPHORE-less (manual-reset) mode: writing 1 signals it,
// reading the counter back to 0 resets it.
type eventfdEvent struct {
	fd int
}

// NewEvent creates a manual-reset Event backed by eventfd(2).
func NewEvent() (Event, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("concurrent: create eventfd: %w", err)
	}
	return &eventfdEvent{fd: fd}, nil
}

func (e *eventfdEvent) FD() int { return e.fd }

func (e *eventfdEvent) Close() error { return unix.Close(e.fd) }

func (e *eventfdEvent) Set() error {
	buf := [8]byte{1, 0, 0, 0, 0, 0, 0, 0}
	_, err := unix.Write(e.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("concurrent: signal eventfd: %w", err)
	}
	return nil
}

func (e *eventfdEvent) Reset() error {
	var buf [8]byte
	_, err := unix.Read(e.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("concurrent: reset eventfd: %w", err)
	}
	return nil
}

// MultiWaiter waits on a bounded set of Waitables plus an implicit
// wake channel, mirroring the host's bounded multi-object wait
// (MAXIMUM_WAIT_OBJECTS). The default implementation multiplexes file
// descriptors with epoll.
type MultiWaiter interface {
	// Wait blocks until one of handles is ready, ctx is done, or the
	// deadline elapses. Returns the index of the ready handle, or -1
	// on timeout/cancellation.
	Wait(ctx context.Context, handles []Waitable) (int, error)
}

type epollWaiter struct {
	mu sync.Mutex
}

// NewMultiWaiter returns the default epoll-backed MultiWaiter.
func NewMultiWaiter() MultiWaiter { return &epollWaiter{} }

func (w *epollWaiter) Wait(ctx context.Context, handles []Waitable) (int, error) {
	if len(handles) == 0 {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("concurrent: epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	for i, h := range handles {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(i)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, h.FD(), &ev); err != nil {
			return -1, fmt.Errorf("concurrent: epoll_ctl add: %w", err)
		}
	}

	events := make([]unix.EpollEvent, len(handles))
	for {
		timeoutMs := -1
		deadline, hasDeadline := ctx.Deadline()
		if hasDeadline {
			d := int(timeUntilMs(deadline))
			if d < 0 {
				d = 0
			}
			timeoutMs = d
		} else if ctx.Done() != nil {
			// A cancellable ctx without a deadline is polled in short
			// slices so its cancellation is observed.
			if err := ctx.Err(); err != nil {
				return -1, err
			}
			timeoutMs = 100
		}
		n, err := unix.EpollWait(epfd, events, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return -1, fmt.Errorf("concurrent: epoll_wait: %w", err)
		}
		if n == 0 {
			if !hasDeadline {
				continue
			}
			return -1, context.DeadlineExceeded
		}
		return int(events[0].Fd), nil
	}
}

// CompletionPort is the host completion-port collaborator §4.5 reads
// through. The default implementation emulates a completion port with
// an in-memory queue signalled by an eventfd; its Associate records
// nothing, so completions reach it only through PostCompletion.
type CompletionPort interface {
	// Associate registers fd under key so future completions for fd
	// are reported with key.
	Associate(fd int, key uintptr) error
	// PostCompletion enqueues a synthetic completion for key, used
	// by I/O simulation (ioQueue.post).
	PostCompletion(key uintptr, bytes int) error
	// GetCompletion blocks for the next completion.
	GetCompletion(ctx context.Context) (key uintptr, bytes int, err error)
	// Close releases the port.
	Close() error
}

type completion struct {
	key   uintptr
	bytes int
}

// memCompletionPort is a process-local completion port: it does not
// talk to the kernel I/O subsystem directly (file I/O completion is
// out of this CORE's scope, per spec.md §1) but honours the exact
// queueing/wake semantics §4.5 depends on, via a mutex-guarded slice
// whose non-empty state is signalled on an eventfd, so GetCompletion
// can be woken from outside.
type memCompletionPort struct {
	mu     sync.Mutex
	queue  []completion
	notify Event
	closed bool
}

// NewCompletionPort creates the default in-process completion port.
func NewCompletionPort() (CompletionPort, error) {
	ev, err := NewEvent()
	if err != nil {
		return nil, err
	}
	return &memCompletionPort{notify: ev}, nil
}

func (p *memCompletionPort) Associate(_ int, _ uintptr) error { return nil }

func (p *memCompletionPort) PostCompletion(key uintptr, bytes int) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("concurrent: completion port closed")
	}
	p.queue = append(p.queue, completion{key: key, bytes: bytes})
	p.mu.Unlock()
	return p.notify.Set()
}

func (p *memCompletionPort) GetCompletion(ctx context.Context) (uintptr, int, error) {
	waiter := NewMultiWaiter()
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			c := p.queue[0]
			p.queue = p.queue[1:]
			if len(p.queue) == 0 {
				_ = p.notify.Reset()
			}
			p.mu.Unlock()
			return c.key, c.bytes, nil
		}
		p.mu.Unlock()

		if _, err := waiter.Wait(ctx, []Waitable{p.notify}); err != nil {
			return 0, 0, err
		}
	}
}

func (p *memCompletionPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.notify.Close()
}
