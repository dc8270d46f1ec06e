package episode

import "fmt"

// Policy decides how a step's move results are committed and rewarded.
type Policy int

const (
	// AllOrNothing commits only a fully legal step; reward 1, else 0.
	AllOrNothing Policy = iota
	// BestEffort commits every legal move; reward +1 per legal, -1 per illegal.
	BestEffort
	// FailFast ends the episode on the first illegal move with FailFastPenalty.
	FailFast
)

// FailFastPenalty is the reward of a step aborted by an illegal move.
const FailFastPenalty = -10.0

var policyNames = map[Policy]string{
	AllOrNothing: "all-or-nothing",
	BestEffort:   "best-effort",
	FailFast:     "fail-fast",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a configuration name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown commit policy %q", name)
}
