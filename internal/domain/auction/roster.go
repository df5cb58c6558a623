package auction

import (
	"fmt"
	"strings"
)

func (s *Session) teamIndex(name string) int {
	key := TeamKey(name)
	if key == "" {
		return -1
	}
	for i, team := range s.Teams {
		if TeamKey(team.Name) == key {
			return i
		}
	}
	return -1
}

// FindTeam matches team names case-insensitively.
func (s *Session) FindTeam(name string) (Team, bool) {
	idx := s.teamIndex(name)
	if idx < 0 {
		return Team{}, false
	}
	return s.Teams[idx], true
}

// TeamOf returns the team whose roster contains user.
func (s *Session) TeamOf(user Identity) (Team, bool) {
	for _, team := range s.Teams {
		if containsIdentity(team.Members, user) {
			return team, true
		}
	}
	return Team{}, false
}

func (s *Session) OwnedTeam(user Identity) (Team, bool) {
	for _, team := range s.Teams {
		if team.Owner().Equal(user) {
			return team, true
		}
	}
	return Team{}, false
}

func (s *Session) AssistedTeam(user Identity) (Team, bool) {
	for _, team := range s.Teams {
		if assistant, ok := s.Assistants[TeamKey(team.Name)]; ok && assistant.Equal(user) {
			return team, true
		}
	}
	return Team{}, false
}

func (s *Session) IsOwnerOf(team string, user Identity) bool {
	found, ok := s.FindTeam(team)
	return ok && found.Owner().Equal(user)
}

// CanBidFor reports whether user is the owner or the assistant of team.
func (s *Session) CanBidFor(team string, user Identity) bool {
	found, ok := s.FindTeam(team)
	if !ok || user.IsZero() {
		return false
	}
	if found.Owner().Equal(user) {
		return true
	}
	assistant, ok := s.Assistants[TeamKey(found.Name)]
	return ok && assistant.Equal(user)
}

// BiddingTeam derives the team a user bids for when none is given: owned first, then assisted.
func (s *Session) BiddingTeam(user Identity) (Team, bool) {
	if team, ok := s.OwnedTeam(user); ok {
		return team, true
	}
	return s.AssistedTeam(user)
}

// AssignMember adds member to team, creating the team (and making member its owner) on first use.
func (s *Session) AssignMember(name string, member Identity) (created bool, err error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return false, fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if member.IsZero() {
		return false, fmt.Errorf("%w: member is required", ErrValidation)
	}
	if current, ok := s.TeamOf(member); ok {
		return false, fmt.Errorf("%w: %s already belongs to team %s", ErrStateConflict, member, current.Name)
	}

	idx := s.teamIndex(name)
	if idx >= 0 {
		s.Teams[idx].Members = append(s.Teams[idx].Members, member)
		return false, nil
	}

	if s.Tables == 0 {
		return false, fmt.Errorf("%w: number of tables is not configured", ErrStateConflict)
	}
	if len(s.Teams) >= s.Tables {
		return false, fmt.Errorf("%w: all %d tables are taken", ErrStateConflict, s.Tables)
	}

	s.Teams = append(s.Teams, Team{Name: name, Members: []Identity{member}})
	if s.Budget > 0 {
		s.TeamBudgets[TeamKey(name)] = s.Budget
	}
	return true, nil
}

func (s *Session) RemoveTeam(name string) (Team, error) {
	idx := s.teamIndex(name)
	if idx < 0 {
		return Team{}, fmt.Errorf("%w: team %q", ErrNotFound, name)
	}

	removed := s.Teams[idx]
	s.Teams = append(s.Teams[:idx], s.Teams[idx+1:]...)
	key := TeamKey(removed.Name)
	delete(s.TeamBudgets, key)
	delete(s.Assistants, key)
	return removed, nil
}

// SetAssistant installs the single assistant of team. An existing assistant must be removed first.
func (s *Session) SetAssistant(name string, user Identity) (Team, error) {
	team, ok := s.FindTeam(name)
	if !ok {
		return Team{}, fmt.Errorf("%w: team %q", ErrNotFound, name)
	}
	if user.IsZero() {
		return Team{}, fmt.Errorf("%w: assistant is required", ErrValidation)
	}
	if team.Owner().Equal(user) {
		return Team{}, fmt.Errorf("%w: the owner cannot assist their own team", ErrValidation)
	}

	key := TeamKey(team.Name)
	if current, exists := s.Assistants[key]; exists {
		return Team{}, fmt.Errorf("%w: team %s already has assistant %s", ErrStateConflict, team.Name, current)
	}
	s.Assistants[key] = user
	return team, nil
}

func (s *Session) RemoveAssistant(name string) (Identity, error) {
	team, ok := s.FindTeam(name)
	if !ok {
		return Identity{}, fmt.Errorf("%w: team %q", ErrNotFound, name)
	}

	key := TeamKey(team.Name)
	current, exists := s.Assistants[key]
	if !exists {
		return Identity{}, fmt.Errorf("%w: team %s has no assistant", ErrNotFound, team.Name)
	}
	delete(s.Assistants, key)
	return current, nil
}

func (s *Session) GrantAccess(user Identity) bool {
	if user.IsZero() || containsIdentity(s.AccessUsers, user) {
		return false
	}
	s.AccessUsers = append(s.AccessUsers, user)
	return true
}

// SetTables validates the table count against the allowed range and the existing roster.
func (s *Session) SetTables(n int) error {
	if n < MinTables || n > MaxTables {
		return fmt.Errorf("%w: tables must be between %d and %d", ErrValidation, MinTables, MaxTables)
	}
	if n < len(s.Teams) {
		return fmt.Errorf("%w: %d teams already exist", ErrStateConflict, len(s.Teams))
	}
	s.Tables = n
	return nil
}

func (s *Session) SetMinMax(minBuy, maxBuy int) error {
	if minBuy < MinBuyLower || minBuy > MinBuyUpper {
		return fmt.Errorf("%w: min must be between %d and %d", ErrValidation, MinBuyLower, MinBuyUpper)
	}
	if maxBuy < MaxBuyLower || maxBuy > MaxBuyUpper {
		return fmt.Errorf("%w: max must be between %d and %d", ErrValidation, MaxBuyLower, MaxBuyUpper)
	}
	s.MinBuy = minBuy
	s.MaxBuy = maxBuy
	return nil
}

func (s *Session) SetCountdown(seconds int) error {
	if seconds < MinCountdownSeconds || seconds > MaxCountdownSeconds {
		return fmt.Errorf("%w: countdown must be between %d and %d seconds", ErrValidation, MinCountdownSeconds, MaxCountdownSeconds)
	}
	s.CountdownSeconds = seconds
	return nil
}
