package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/appearance"
)

// DefaultOutboxSize is the number of undelivered events kept per participant
const DefaultOutboxSize = 256

// EventKind names what an Event carries
type EventKind string

// Event kinds delivered to participants
const (
	EventAppearance     EventKind = "appearance"
	EventHeight         EventKind = "height"
	EventRebake         EventKind = "rebake"
	EventCachedTextures EventKind = "cached_textures"
	EventWearables      EventKind = "wearables"
)

// Event is one outbound message for a participant
type Event struct {
	Kind EventKind `json:"kind"`
	// Subject is the participant the event is about
	Subject uuid.UUID `json:"subject"`
	At      time.Time `json:"at"`

	Appearance     *appearance.Record                 `json:"appearance,omitempty"`
	Height         float64                            `json:"height,omitempty"`
	TextureID      uuid.UUID                          `json:"texture_id,omitempty"`
	CachedTextures []appearance.CachedTextureResponse `json:"cached_textures,omitempty"`
	Wearables      *appearance.WearableSet            `json:"wearables,omitempty"`
	Serial         int                                `json:"serial,omitempty"`
}

// outbox is a bounded FIFO; the oldest event is dropped on overflow
type outbox struct {
	events  []Event
	dropped int
}

// Hub is an in-process Broadcaster that buffers events per participant until they are drained.
type Hub struct {
	mu      sync.Mutex
	size    int
	outbox  map[uuid.UUID]*outbox
	heights map[uuid.UUID]float64
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithOutboxSize bounds the number of buffered events per participant
func WithOutboxSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.size = n
		}
	}
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		size:    DefaultOutboxSize,
		outbox:  make(map[uuid.UUID]*outbox),
		heights: make(map[uuid.UUID]float64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	_ Broadcaster    = (*Hub)(nil)
	_ SessionTracker = (*Hub)(nil)
)

// SessionTracker is implemented by broadcasters that keep per-participant delivery state
// and need to know when a participant connects or leaves.
type SessionTracker interface {
	Open(id uuid.UUID)
	Close(id uuid.UUID)
}

// Open starts buffering events for a participant. Opening twice keeps the existing buffer.
func (h *Hub) Open(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.outbox[id]; !ok {
		h.outbox[id] = &outbox{}
	}
}

// Close discards the participant's buffer and stops delivery to it.
func (h *Hub) Close(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.outbox, id)
	delete(h.heights, id)
}

// Drain returns and clears the participant's pending events. The second result is
// false when the participant has no open buffer.
func (h *Hub) Drain(id uuid.UUID) ([]Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ob, ok := h.outbox[id]
	if !ok {
		return nil, false
	}
	events := ob.events
	if ob.dropped > 0 {
		slog.Warn("Presence outbox overflowed", "participant", id, "dropped", ob.dropped)
	}
	ob.events = nil
	ob.dropped = 0
	return events, true
}

// Height returns the last height set for the participant
func (h *Hub) Height(id uuid.UUID) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.heights[id]
	return v, ok
}

// push must be called with h.mu held
func (h *Hub) push(to uuid.UUID, ev Event) {
	ob, ok := h.outbox[to]
	if !ok {
		return
	}
	if len(ob.events) >= h.size {
		ob.events = ob.events[1:]
		ob.dropped++
	}
	ob.events = append(ob.events, ev)
}

func (h *Hub) deliver(to uuid.UUID, ev Event) {
	ev.At = time.Now().UTC()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(to, ev)
}

// SendAppearanceToSelf queues the participant's appearance for itself
func (h *Hub) SendAppearanceToSelf(_ context.Context, id uuid.UUID, record *appearance.Record) {
	h.deliver(id, Event{Kind: EventAppearance, Subject: id, Appearance: record.Clone()})
}

// SendAppearanceToOthers queues the participant's appearance for every other open participant
func (h *Hub) SendAppearanceToOthers(_ context.Context, id uuid.UUID, record *appearance.Record) {
	ev := Event{Kind: EventAppearance, Subject: id, At: time.Now().UTC(), Appearance: record.Clone()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for other := range h.outbox {
		if other == id {
			continue
		}
		h.push(other, ev)
	}
}

// SetHeight records the height and notifies the participant
func (h *Hub) SetHeight(_ context.Context, id uuid.UUID, height float64) {
	h.mu.Lock()
	if _, ok := h.outbox[id]; ok {
		h.heights[id] = height
	}
	h.mu.Unlock()
	h.deliver(id, Event{Kind: EventHeight, Subject: id, Height: height})
}

// RequestRebake asks the participant's viewer to rebake a texture
func (h *Hub) RequestRebake(_ context.Context, id uuid.UUID, textureID uuid.UUID) {
	h.deliver(id, Event{Kind: EventRebake, Subject: id, TextureID: textureID})
}

// SendCachedTextures delivers a cached texture answer
func (h *Hub) SendCachedTextures(_ context.Context, id uuid.UUID, responses []appearance.CachedTextureResponse) {
	cp := make([]appearance.CachedTextureResponse, len(responses))
	copy(cp, responses)
	h.deliver(id, Event{Kind: EventCachedTextures, Subject: id, CachedTextures: cp})
}

// SendWearables delivers the participant's worn items
func (h *Hub) SendWearables(_ context.Context, id uuid.UUID, wearables appearance.WearableSet, serial int) {
	ws := wearables.Clone()
	h.deliver(id, Event{Kind: EventWearables, Subject: id, Wearables: &ws, Serial: serial})
}
