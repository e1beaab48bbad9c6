package store

import (
	"sync"

	"github.com/guardia-tools/notekeeper/internal/models"
)

// notifier fans committed snapshots out to subscribers. Each subscriber gets
// its own delivery goroutine fed through a one-slot channel: a write that
// lands while a callback is still running replaces the queued snapshot, so a
// slow subscriber only ever sees the most recent state it missed.
type notifier struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	userID     string
	onSnapshot func([]models.Record)
	onError    func(error)
	snaps      chan []models.Record
	done       chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]*subscriber)}
}

func (n *notifier) subscribe(userID string, onSnapshot func([]models.Record), onError func(error)) func() {
	s := &subscriber{
		userID:     userID,
		onSnapshot: onSnapshot,
		onError:    onError,
		snaps:      make(chan []models.Record, 1),
		done:       make(chan struct{}),
	}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = s
	n.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case snap := <-s.snaps:
				select {
				case <-s.done:
					return
				default:
				}
				s.onSnapshot(snap)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(s.done)
		})
	}
}

// publish queues the snapshot for every subscriber of userID.
func (n *notifier) publish(userID string, records []models.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		if s.userID != userID {
			continue
		}
		select {
		case s.snaps <- records:
		default:
			// replace the stale queued snapshot
			select {
			case <-s.snaps:
			default:
			}
			select {
			case s.snaps <- records:
			default:
			}
		}
	}
}

// publishError reports a delivery failure to every subscriber of userID.
func (n *notifier) publishError(userID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		if s.userID == userID && s.onError != nil {
			go s.onError(err)
		}
	}
}
