// FILE: internal/service/waiter.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WaitTimeout is the maximum time a client can wait for notifications
var WaitTimeout = 25 * time.Second

// WaitRegistry manages long-polling clients waiting for session changes
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*WaitRequest // sessionID → waiting clients
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for session updates
type WaitRequest struct {
	Version   int           // Last version the client saw
	SessionID string        // Session being watched
	done      chan struct{} // Closed once on change, timeout or shutdown
	once      sync.Once
	timer     *time.Timer
}

func (r *WaitRequest) release() {
	r.once.Do(func() { close(r.done) })
}

// NewWaitRegistry creates a new wait registry
func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel closed when the session moves past version,
// after WaitTimeout, on shutdown or when ctx ends
func (w *WaitRegistry) RegisterWait(ctx context.Context, sessionID string, version int) <-chan struct{} {
	req := &WaitRequest{
		Version:   version,
		SessionID: sessionID,
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		req.release()
		return req.done
	}
	req.timer = time.AfterFunc(WaitTimeout, req.release)
	w.waiters[sessionID] = append(w.waiters[sessionID], req)
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			req.release()
		case <-req.done:
		case <-w.shutdown:
			req.release()
		}
		req.timer.Stop()
		w.removeWaiter(sessionID, req)
	}()

	return req.done
}

// NotifySession wakes every client waiting on a session at another version
func (w *WaitRegistry) NotifySession(sessionID string, version int) {
	w.mu.Lock()
	waitList := append([]*WaitRequest(nil), w.waiters[sessionID]...)
	w.mu.Unlock()

	for _, req := range waitList {
		if req.Version != version {
			req.release()
		}
	}
}

// RemoveSession wakes and forgets all waiters of a deleted session
func (w *WaitRegistry) RemoveSession(sessionID string) {
	w.mu.Lock()
	waitList := w.waiters[sessionID]
	delete(w.waiters, sessionID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.release()
	}
}

// Waiting returns the number of clients parked on a session
func (w *WaitRegistry) Waiting(sessionID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[sessionID])
}

// Shutdown releases every waiter and waits for their goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.shutdown)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out after %s", timeout)
	}
}

// removeWaiter removes a specific waiter from the registry
func (w *WaitRegistry) removeWaiter(sessionID string, req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[sessionID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[sessionID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}

	if len(w.waiters[sessionID]) == 0 {
		delete(w.waiters, sessionID)
	}
}
