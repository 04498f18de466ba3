package manager

import (
	"encoding/json"
	"sync"

	"github.com/tejzpr/privacy-portal/internal/db"
)

// SSEBroker fans new deletion requests out to admin event streams.
type SSEBroker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewSSEBroker() *SSEBroker {
	return &SSEBroker{
		clients: make(map[chan string]struct{}),
	}
}

func (b *SSEBroker) Subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *SSEBroker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish never blocks; a subscriber with a full buffer misses the message.
func (b *SSEBroker) Publish(req db.DeletionRequest) {
	payload, err := json.Marshal(req)
	if err != nil {
		return
	}
	msg := string(payload)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
