package session

// Team is a player's affiliation. The wire protocol does not carry
// teams; they are assigned locally by game logic.
type Team int

const (
	TeamNeutral Team = iota
	TeamA
	TeamB
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "team_a"
	case TeamB:
		return "team_b"
	default:
		return "neutral"
	}
}

// FriendlyTo reports whether two teams are allied. Neutral is friendly
// to no one, itself included.
func (t Team) FriendlyTo(other Team) bool {
	if t == TeamNeutral || other == TeamNeutral {
		return false
	}
	return t == other
}

// EnemyTo reports whether two teams oppose each other. Neutral has no
// enemies either.
func (t Team) EnemyTo(other Team) bool {
	if t == TeamNeutral || other == TeamNeutral {
		return false
	}
	return t != other
}
