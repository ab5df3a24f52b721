package entity

import "time"

// Actor is the opaque identity the auth layer hands to the core.
type Actor struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// Seat binds one color to one actor. Anonymous seats carry an expiry.
type Seat struct {
	ActorID   string     `json:"actor_id"`
	Anonymous bool       `json:"anonymous,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewSeat(actor Actor, now time.Time, ttl time.Duration) *Seat {
	seat := &Seat{
		ActorID:   actor.ID,
		Anonymous: actor.Anonymous,
	}
	seat.Touch(now, ttl)

	return seat
}

// Touch pushes the expiry of an anonymous seat forward.
func (that *Seat) Touch(now time.Time, ttl time.Duration) {
	if !that.Anonymous || ttl <= 0 {
		return
	}

	expiresAt := now.Add(ttl)
	that.ExpiresAt = &expiresAt
}

// HeldBy reports whether actor owns the seat. Registered and anonymous
// actors never match each other, whatever their ids.
func (that *Seat) HeldBy(actor Actor) bool {
	return that != nil && that.ActorID == actor.ID && that.Anonymous == actor.Anonymous
}

func (that *Seat) Expired(now time.Time) bool {
	return that.ExpiresAt != nil && !now.Before(*that.ExpiresAt)
}

type Seats struct {
	Black *Seat `json:"black,omitempty"`
	White *Seat `json:"white,omitempty"`
}

func (that *Seats) Get(c Color) *Seat {
	switch c {
	case Black:
		return that.Black
	case White:
		return that.White
	default:
		return nil
	}
}

func (that *Seats) Set(c Color, seat *Seat) {
	switch c {
	case Black:
		that.Black = seat
	case White:
		that.White = seat
	}
}

// ColorOf returns the color held by actorID, or Empty.
func (that *Seats) ColorOf(actorID string) Color {
	if actorID == "" {
		return Empty
	}

	if that.Black != nil && that.Black.ActorID == actorID {
		return Black
	}
	if that.White != nil && that.White.ActorID == actorID {
		return White
	}

	return Empty
}

// ColorOfActor is ColorOf restricted to seats actor really holds.
func (that *Seats) ColorOfActor(actor Actor) Color {
	color := that.ColorOf(actor.ID)
	if !that.Get(color).HeldBy(actor) {
		return Empty
	}

	return color
}

// PruneExpired releases anonymous seats past their expiry and reports
// whether anything changed.
func (that *Seats) PruneExpired(now time.Time) bool {
	changed := false

	for _, c := range []Color{Black, White} {
		if seat := that.Get(c); seat != nil && seat.Expired(now) {
			that.Set(c, nil)
			changed = true
		}
	}

	return changed
}

func (that Seats) Clone() Seats {
	var out Seats

	for _, c := range []Color{Black, White} {
		seat := that.Get(c)
		if seat == nil {
			continue
		}

		copied := *seat
		if seat.ExpiresAt != nil {
			expiresAt := *seat.ExpiresAt
			copied.ExpiresAt = &expiresAt
		}
		out.Set(c, &copied)
	}

	return out
}
