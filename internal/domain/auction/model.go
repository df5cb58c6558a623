package auction

import (
	"strings"
	"time"
)

const (
	DefaultCountdownSeconds = 30
	MinCountdownSeconds     = 15
	MaxCountdownSeconds     = 30

	MinTables = 2
	MaxTables = 20

	MinBuyLower = 3
	MinBuyUpper = 12
	MaxBuyLower = 13
	MaxBuyUpper = 26
)

// Player is an auctionable entry of the pool.
type Player struct {
	UserID      int64  `json:"user_id,omitempty"`
	Name        string `json:"name"`
	Handle      string `json:"handle,omitempty"`
	Role        string `json:"role,omitempty"`
	Code        string `json:"code,omitempty"`
	BasePrice   int64  `json:"base_price,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Identity returns the canonical identity: numeric when resolved, otherwise the handle.
func (p Player) Identity() Identity {
	if p.UserID > 0 {
		return NumericIdentity(p.UserID)
	}
	return ParseIdentity(p.Handle)
}

// Key identifies the player inside one pool and across run records.
func (p Player) Key() string {
	if key := p.Identity().Key(); key != "" {
		return key
	}
	if code := strings.TrimSpace(p.Code); code != "" {
		return "c:" + strings.ToLower(code)
	}
	return "x:" + TeamKey(p.Name)
}

func (p Player) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if p.Handle != "" {
		return "@" + strings.TrimPrefix(p.Handle, "@")
	}
	return p.Identity().String()
}

// Team is a roster entry; the first member is the owner.
type Team struct {
	Name    string     `json:"name"`
	Members []Identity `json:"members"`
}

func (t Team) Owner() Identity {
	if len(t.Members) == 0 {
		return Identity{}
	}
	return t.Members[0]
}

// PlayerSet is an ordered list of players sharing one base price.
type PlayerSet struct {
	Name      string   `json:"name"`
	BasePrice int64    `json:"base_price"`
	Players   []Player `json:"players"`
}

type Bid struct {
	Team       string    `json:"team"`
	Bidder     Identity  `json:"bidder"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int64     `json:"amount"`
	At         time.Time `json:"at"`
}

// Slot is the bidding window of a single player.
type Slot struct {
	ID             int64     `json:"id"`
	Player         Player    `json:"player"`
	StartPrice     int64     `json:"start_price"`
	OpenedAt       time.Time `json:"opened_at"`
	Deadline       time.Time `json:"deadline"`
	Highest        *Bid      `json:"highest,omitempty"`
	Warned10       bool      `json:"warned_10,omitempty"`
	LastWarnSecond int       `json:"last_warn_second,omitempty"`
}

// LogEntry records a finalized slot. Price is nil for unsold outcomes.
type LogEntry struct {
	SlotID int64     `json:"slot_id"`
	Player Player    `json:"player"`
	Team   string    `json:"team,omitempty"`
	Buyer  *Identity `json:"buyer,omitempty"`
	Price  *int64    `json:"price,omitempty"`
	At     time.Time `json:"at"`
}

func (e LogEntry) Sold() bool {
	return e.Price != nil
}

// Session is the per-venue aggregate.
type Session struct {
	VenueID          string              `json:"venue_id"`
	Active           bool                `json:"active"`
	HostID           Identity            `json:"host_id"`
	HostName         string              `json:"host_name,omitempty"`
	Tables           int                 `json:"tables,omitempty"`
	Teams            []Team              `json:"teams"`
	TeamBudgets      map[string]int64    `json:"team_budgets"`
	Budget           int64               `json:"budget,omitempty"`
	MinBuy           int                 `json:"min_buy,omitempty"`
	MaxBuy           int                 `json:"max_buy,omitempty"`
	CountdownSeconds int                 `json:"countdown_seconds"`
	Players          []Player            `json:"players"`
	Slot             *Slot               `json:"slot,omitempty"`
	AutoMode         bool                `json:"auto_mode,omitempty"`
	Queue            []Player            `json:"queue,omitempty"`
	SetIndex         int                 `json:"set_index"`
	ReplayUnsold     bool                `json:"replay_unsold,omitempty"`
	Sets             []PlayerSet         `json:"sets,omitempty"`
	Assistants       map[string]Identity `json:"assistants"`
	AccessUsers      []Identity          `json:"access_users,omitempty"`
	Paused           bool                `json:"paused,omitempty"`
	PausedAt         *time.Time          `json:"paused_at,omitempty"`
	CurrentRunID     string              `json:"current_run_id,omitempty"`
	SlotSeq          int64               `json:"slot_seq"`
	Log              []LogEntry          `json:"log"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewSession returns the default session handed out for a venue that was never touched.
func NewSession(venueID string) Session {
	return Session{
		VenueID:          venueID,
		Teams:            []Team{},
		TeamBudgets:      map[string]int64{},
		CountdownSeconds: DefaultCountdownSeconds,
		Players:          []Player{},
		Assistants:       map[string]Identity{},
		Log:              []LogEntry{},
	}
}

// Normalize fills maps and slices a decoder may leave nil.
func (s *Session) Normalize() {
	if s.Teams == nil {
		s.Teams = []Team{}
	}
	if s.TeamBudgets == nil {
		s.TeamBudgets = map[string]int64{}
	}
	if s.Players == nil {
		s.Players = []Player{}
	}
	if s.Assistants == nil {
		s.Assistants = map[string]Identity{}
	}
	if s.Log == nil {
		s.Log = []LogEntry{}
	}
	if s.CountdownSeconds == 0 {
		s.CountdownSeconds = DefaultCountdownSeconds
	}
}

func (s *Session) Countdown() time.Duration {
	return time.Duration(ClampCountdown(s.CountdownSeconds)) * time.Second
}

func ClampCountdown(seconds int) int {
	switch {
	case seconds <= 0:
		return DefaultCountdownSeconds
	case seconds < MinCountdownSeconds:
		return MinCountdownSeconds
	case seconds > MaxCountdownSeconds:
		return MaxCountdownSeconds
	default:
		return seconds
	}
}

func (s *Session) IsHostOrAccess(user Identity) bool {
	if user.IsZero() {
		return false
	}
	return s.HostID.Equal(user) || containsIdentity(s.AccessUsers, user)
}

func (s *Session) FindPlayer(key string) (Player, bool) {
	for _, p := range s.Players {
		if p.Key() == key {
			return p, true
		}
	}
	return Player{}, false
}

// AddPlayers appends players not yet in the pool and returns how many were added.
func (s *Session) AddPlayers(players ...Player) int {
	seen := make(map[string]struct{}, len(s.Players))
	for _, p := range s.Players {
		seen[p.Key()] = struct{}{}
	}

	added := 0
	for _, p := range players {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		s.Players = append(s.Players, p)
		added++
	}
	return added
}

// Sale is a sold entry of a run.
type Sale struct {
	SlotID int64     `json:"slot_id"`
	Player Player    `json:"player"`
	Team   string    `json:"team"`
	Buyer  Identity  `json:"buyer"`
	Price  int64     `json:"price"`
	At     time.Time `json:"at"`
}

// UnsoldEntry keeps the start price so the unsold pool can be replayed at it.
type UnsoldEntry struct {
	SlotID     int64     `json:"slot_id"`
	Player     Player    `json:"player"`
	StartPrice int64     `json:"start_price"`
	At         time.Time `json:"at"`
}

// Run is one pass over a loaded pool. Its event log is stored apart from the body.
type Run struct {
	RunID         string         `json:"run_id"`
	VenueID       string         `json:"venue_id"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty"`
	HostID        Identity       `json:"host_id"`
	Tables        int            `json:"tables,omitempty"`
	Teams         []string       `json:"teams"`
	Budget        int64          `json:"budget,omitempty"`
	PlayersLoaded int            `json:"players_loaded"`
	Sold          []Sale         `json:"sold"`
	Unsold        []UnsoldEntry  `json:"unsold"`
	Attempts      map[string]int `json:"attempts"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Events        []Event        `json:"events,omitempty"`
}

func NewRun(runID string, session Session, now time.Time) Run {
	run := Run{
		RunID:     runID,
		VenueID:   session.VenueID,
		StartedAt: now,
		HostID:    session.HostID,
		Sold:      []Sale{},
		Unsold:    []UnsoldEntry{},
		Attempts:  map[string]int{},
	}
	run.Snapshot(session)
	return run
}

// Snapshot copies the session configuration into the run header.
func (r *Run) Snapshot(session Session) {
	r.HostID = session.HostID
	r.Tables = session.Tables
	r.Budget = session.Budget
	r.PlayersLoaded = len(session.Players)
	r.Teams = make([]string, 0, len(session.Teams))
	for _, team := range session.Teams {
		r.Teams = append(r.Teams, team.Name)
	}
}

func (r *Run) Normalize() {
	if r.Sold == nil {
		r.Sold = []Sale{}
	}
	if r.Unsold == nil {
		r.Unsold = []UnsoldEntry{}
	}
	if r.Attempts == nil {
		r.Attempts = map[string]int{}
	}
	if r.Teams == nil {
		r.Teams = []string{}
	}
}
