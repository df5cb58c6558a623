package auction

import "time"

// AttemptThreshold is the number of unsold attempts after which a player counts as exhausted.
const AttemptThreshold = 2

// Record applies a finalized outcome to the run: sold or unsold list plus the attempt counter.
func (r *Run) Record(outcome Outcome) {
	r.Normalize()
	key := outcome.Slot.Player.Key()
	r.Attempts[key]++

	if outcome.Sold() {
		r.Sold = append(r.Sold, Sale{
			SlotID: outcome.Slot.ID,
			Player: outcome.Slot.Player,
			Team:   outcome.Entry.Team,
			Buyer:  *outcome.Entry.Buyer,
			Price:  *outcome.Entry.Price,
			At:     outcome.Entry.At,
		})
		return
	}

	r.Unsold = append(r.Unsold, UnsoldEntry{
		SlotID:     outcome.Slot.ID,
		Player:     outcome.Slot.Player,
		StartPrice: outcome.Slot.StartPrice,
		At:         outcome.Entry.At,
	})
}

func (r *Run) IsSold(playerKey string) bool {
	for _, sale := range r.Sold {
		if sale.Player.Key() == playerKey {
			return true
		}
	}
	return false
}

func (r *Run) WasUnsold(playerKey string) bool {
	for _, entry := range r.Unsold {
		if entry.Player.Key() == playerKey {
			return true
		}
	}
	return false
}

func (r *Run) SaleOf(playerKey string) (Sale, bool) {
	for _, sale := range r.Sold {
		if sale.Player.Key() == playerKey {
			return sale, true
		}
	}
	return Sale{}, false
}

// UnsoldPool lists players recorded unsold and never sold, once each, at their original start price.
func (r *Run) UnsoldPool() []Player {
	seen := make(map[string]struct{}, len(r.Unsold))
	pool := make([]Player, 0, len(r.Unsold))
	for _, entry := range r.Unsold {
		key := entry.Player.Key()
		if _, ok := seen[key]; ok || r.IsSold(key) {
			continue
		}
		seen[key] = struct{}{}
		player := entry.Player
		player.BasePrice = entry.StartPrice
		pool = append(pool, player)
	}
	return pool
}

// Complete reports whether every pool player is sold or has reached the attempt threshold.
func (r *Run) Complete(pool []Player) bool {
	if len(pool) == 0 {
		return false
	}
	for _, p := range pool {
		key := p.Key()
		if r.IsSold(key) {
			continue
		}
		if r.Attempts[key] < AttemptThreshold {
			return false
		}
	}
	return true
}

// MarkComplete sets the completion time once; it reports false when already complete.
func (r *Run) MarkComplete(now time.Time) bool {
	if r.CompletedAt != nil {
		return false
	}
	completed := now
	r.CompletedAt = &completed
	return true
}

func (r *Run) Close(now time.Time) {
	if r.EndedAt != nil {
		return
	}
	ended := now
	r.EndedAt = &ended
}
