package results

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes a sample of episode returns.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes Stats over returns. StdDev is the sample standard
// deviation and is 0 for fewer than two values.
func Summarize(returns []float64) Stats {
	if len(returns) == 0 {
		return Stats{}
	}
	st := Stats{
		Count: len(returns),
		Min:   floats.Min(returns),
		Max:   floats.Max(returns),
	}
	if len(returns) == 1 {
		st.Mean = returns[0]
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(returns, nil)
	return st
}
