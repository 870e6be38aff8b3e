// Package sse implements a Server-Sent Events broker that tells connected
// dashboards when documents, the catalogue or posts change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types broadcast by the broker.
const (
	EventDocumentRefreshed = "document.refreshed"
	EventCatalogueReloaded = "catalogue.reloaded"
	EventPostCreated       = "post.created"
	EventPostUpdated       = "post.updated"
	EventPostDeleted       = "post.deleted"
	// EventIndexUpdated follows change events, at most once per throttle
	// interval.
	EventIndexUpdated = "index.updated"
)

const clientBuffer = 64

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// frame is an encoded event together with its sequence number.
type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	lastID uint64
	replay bool
}

type publishReq struct {
	event  Event
	change bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithIndexThrottle sets the minimum gap between index.updated events.
func WithIndexThrottle(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.indexMin = d
		}
	}
}

// WithHeartbeat makes ServeHTTP write a comment line every d so idle
// connections survive proxies. Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// WithBacklog keeps the last n events for clients reconnecting with
// Last-Event-ID. It is capped at the client buffer size.
func WithBacklog(n int) Option {
	return func(b *Broker) { b.backlogSize = min(max(n, 0), clientBuffer) }
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the clients, the sequence counter, the
// backlog and the throttle timestamp. Public methods talk to it over channels.
type Broker struct {
	indexMin    time.Duration
	heartbeat   time.Duration
	backlogSize int

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan publishReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its event loop.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		indexMin:      2 * time.Second,
		heartbeat:     30 * time.Second,
		backlogSize:   32,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan publishReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(id uint64, event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", id, event.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	backlog := make([]frame, 0, b.backlogSize)
	var seq uint64
	var lastIndex time.Time

	broadcast := func(event Event) {
		raw, err := encode(seq+1, event)
		if err != nil {
			return
		}
		seq++

		if b.backlogSize > 0 {
			if len(backlog) == b.backlogSize {
				backlog = append(backlog[:0], backlog[1:]...)
			}
			backlog = append(backlog, frame{id: seq, raw: raw})
		}

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = struct{}{}
			if sub.replay {
				for _, f := range backlog {
					if f.id > sub.lastID {
						sub.ch <- f.raw
					}
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.publishCh:
			broadcast(req.event)
			if !req.change {
				continue
			}
			if now := time.Now(); now.Sub(lastIndex) >= b.indexMin {
				lastIndex = now
				broadcast(Event{Type: EventIndexUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel. When lastEventID parses as
// an event id, backlog events after it are queued on the channel first.
func (b *Broker) Subscribe(lastEventID string) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	sub := subscription{ch: ch}
	if id, err := strconv.ParseUint(lastEventID, 10, 64); err == nil {
		sub.lastID, sub.replay = id, true
	}

	select {
	case b.subscribeCh <- sub:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

func (b *Broker) send(req publishReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- req:
	case <-b.stopped:
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.send(publishReq{event: event})
}

// PublishChange publishes a change event followed by a throttled
// index.updated event.
func (b *Broker) PublishChange(typ string, data map[string]string) {
	if data == nil {
		data = map[string]string{}
	}
	b.send(publishReq{event: Event{Type: typ, Data: data}, change: true})
}

// PublishPost publishes a post change. kind is one of the post.* event types.
func (b *Broker) PublishPost(kind, id string) {
	b.PublishChange(kind, map[string]string{"id": id})
}

// PublishDocument publishes a document refresh.
func (b *Broker) PublishDocument(id string) {
	b.PublishChange(EventDocumentRefreshed, map[string]string{"id": id})
}

// ServeHTTP streams events to one client (GET /api/events). A reconnecting
// client's Last-Event-ID header replays what it missed from the backlog.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	var beat <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		beat = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-beat:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
