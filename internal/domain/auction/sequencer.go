package auction

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// UnsoldSetRef selects the unsold pool of the current run instead of a numbered set.
const UnsoldSetRef = "unsold"

// Shuffler permutes a queue in place.
type Shuffler func([]Player)

func RandomShuffle(players []Player) {
	rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
}

// Dedupe keeps the first occurrence of each player identity.
func Dedupe(players []Player) []Player {
	seen := make(map[string]struct{}, len(players))
	out := make([]Player, 0, len(players))
	for _, p := range players {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DefineSet appends a named set; its players join the pool when new.
func (s *Session) DefineSet(name string, basePrice int64, players []Player) (PlayerSet, error) {
	if basePrice <= 0 {
		return PlayerSet{}, fmt.Errorf("%w: base price must be > 0", ErrValidation)
	}
	players = Dedupe(players)
	if len(players) == 0 {
		return PlayerSet{}, fmt.Errorf("%w: set needs at least one player", ErrValidation)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Set " + strconv.Itoa(len(s.Sets)+1)
	}

	set := PlayerSet{Name: name, BasePrice: basePrice, Players: make([]Player, 0, len(players))}
	for _, p := range players {
		p.BasePrice = basePrice
		set.Players = append(set.Players, p)
	}
	s.AddPlayers(set.Players...)
	s.Sets = append(s.Sets, set)
	return set, nil
}

// ParseSetRef accepts a zero-based set index or "unsold".
func ParseSetRef(raw string) (index int, unsold bool, err error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == UnsoldSetRef {
		return 0, true, nil
	}
	index, err = strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, false, fmt.Errorf("%w: set must be an index or %q", ErrValidation, UnsoldSetRef)
	}
	return index, false, nil
}

// LoadQueue arms auto mode with a deduplicated, shuffled queue.
func (s *Session) LoadQueue(players []Player, setIndex int, replayUnsold bool, shuffle Shuffler) int {
	queue := Dedupe(players)
	if shuffle != nil {
		shuffle(queue)
	}
	s.Queue = queue
	s.SetIndex = setIndex
	s.ReplayUnsold = replayUnsold
	s.AutoMode = true
	return len(queue)
}

// NextQueued pops players until one is eligible: not sold in the run and, outside an unsold
// replay, not already recorded unsold in the run.
func (s *Session) NextQueued(run *Run) (Player, bool) {
	for len(s.Queue) > 0 {
		next := s.Queue[0]
		s.Queue = s.Queue[1:]

		key := next.Key()
		if run != nil {
			if run.IsSold(key) {
				continue
			}
			if !s.ReplayUnsold && run.WasUnsold(key) {
				continue
			}
		}
		return next, true
	}
	s.Queue = nil
	return Player{}, false
}

// NextSetIndex returns the set that follows the current one, if any.
func (s *Session) NextSetIndex() (int, bool) {
	if s.ReplayUnsold {
		return 0, false
	}
	next := s.SetIndex + 1
	if next < len(s.Sets) {
		return next, true
	}
	return 0, false
}
