package domain

// Rank is the ladder used by net access gates. The zero value means
// "no gate" when used as a minimum.
type Rank string

const (
	RankVagrant   Rank = "Vagrant"
	RankScout     Rank = "Scout"
	RankOperator  Rank = "Operator"
	RankSergeant  Rank = "Sergeant"
	RankCommander Rank = "Commander"
	RankMarshal   Rank = "Marshal"
)

var rankOrder = map[Rank]int{
	RankVagrant:   0,
	RankScout:     1,
	RankOperator:  2,
	RankSergeant:  3,
	RankCommander: 4,
	RankMarshal:   5,
}

// AtLeast reports whether r meets the given minimum. An unknown or empty
// minimum never gates.
func (r Rank) AtLeast(min Rank) bool {
	if min == "" {
		return true
	}
	minLevel, ok := rankOrder[min]
	if !ok {
		return true
	}
	level, ok := rankOrder[r]
	if !ok {
		return false
	}
	return level >= minLevel
}

// CommandEquivalent ranks may transmit on command-only nets and bypass
// request-to-speak approval.
func (r Rank) CommandEquivalent() bool {
	return r.AtLeast(RankSergeant)
}
