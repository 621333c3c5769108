// Package tracker maintains the cross-product lifecycle of VTEC events.
// The decoder is stateless and emits one snapshot per product; the tracker
// folds snapshots into the latest state per event key so consumers can ask
// "what is in effect right now" without replaying the feed.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// ErrNotFound reports a key with no tracked state.
var ErrNotFound = errors.New("tracker: event not found")

// EventState is the latest known lifecycle state of one tracked event.
type EventState struct {
	Key domain.EventKey `json:"key"`

	Action    domain.Action `json:"action"`
	RawAction string        `json:"raw_action"`

	Begin domain.EventInstant `json:"begin"`
	End   domain.EventInstant `json:"end"`

	Hydro *domain.HydroVtec `json:"hydro,omitempty"`

	// Closed is set once a terminal action (CAN, EXP, UPG) is seen.
	Closed bool `json:"closed,omitempty"`

	// ProductID and UpdatedAt identify the product that produced this
	// state, for triage when snapshots arrive out of order.
	ProductID string    `json:"product_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the event is in effect at the given instant: not
// closed, begun (or open-ended at the start), and not yet past its end.
func (s EventState) Active(now time.Time) bool {
	if s.Closed {
		return false
	}
	if !s.Begin.Open && s.Begin.Time.After(now) {
		return false
	}
	if !s.End.Open && s.End.Time.Before(now) {
		return false
	}
	return true
}

// Store persists event states keyed by the VTEC correlation key.
type Store interface {
	Get(ctx context.Context, key domain.EventKey) (EventState, error)
	Put(ctx context.Context, state EventState) error
	List(ctx context.Context) ([]EventState, error)
}

// Tracker folds per-product VTEC snapshots into a Store.
type Tracker struct {
	store Store
}

func New(store Store) *Tracker {
	return &Tracker{store: store}
}

// Apply folds one snapshot into the tracked state and returns the result.
// Later products win: VTEC carries no sequence number, so arrival order
// within one event key is trusted. A terminal action closes the event but
// the closing state is retained until the store expires it, so consumers
// can observe the cancellation itself.
func (t *Tracker) Apply(ctx context.Context, productID string, ev domain.VtecEvent, seenAt time.Time) (EventState, error) {
	state := EventState{
		Key:       ev.Key(),
		Action:    ev.Action,
		RawAction: ev.RawAction,
		Begin:     ev.Begin,
		End:       ev.End,
		Hydro:     ev.Hydro,
		Closed:    ev.Action.Terminal(),
		ProductID: productID,
		UpdatedAt: seenAt,
	}

	prev, err := t.store.Get(ctx, state.Key)
	switch {
	case errors.Is(err, ErrNotFound):
		// First sighting; a non-NEW first action is normal mid-stream.
	case err != nil:
		return EventState{}, err
	default:
		// An open begin on a continuation means "unchanged": inherit the
		// bound established earlier in the event's life.
		if state.Begin.Open && !prev.Begin.Open {
			state.Begin = prev.Begin
		}
		if state.Hydro == nil {
			state.Hydro = prev.Hydro
		}
		// A closed event stays closed unless a fresh NEW reuses the ETN.
		if prev.Closed && ev.Action != domain.ActionNew {
			state.Closed = true
		}
	}

	if err := t.store.Put(ctx, state); err != nil {
		return EventState{}, err
	}
	return state, nil
}

// ApplyProduct folds every VTEC snapshot in a decoded product.
func (t *Tracker) ApplyProduct(ctx context.Context, p *domain.Product) error {
	for _, seg := range p.Segments {
		for _, ev := range seg.Vtec {
			if _, err := t.Apply(ctx, p.ID, ev, p.DecodedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Active lists events in effect at the given instant.
func (t *Tracker) Active(ctx context.Context, now time.Time) ([]EventState, error) {
	all, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EventState, 0, len(all))
	for _, s := range all {
		if s.Active(now) {
			out = append(out, s)
		}
	}
	return out, nil
}
