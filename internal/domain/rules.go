package domain

import (
	"errors"
	"fmt"
	"time"
)

// Rules is the immutable set of constants that drive reputation, weighting and
// the rumor lifecycle. It is passed by value so callers can't mutate a shared copy.
type Rules struct {
	InitialReputation float64
	MaxReputation     float64
	SeniorThreshold   float64
	MidThreshold      float64
	VoteMultiplier    float64

	CostLow  float64
	CostHigh float64

	RewardConsensus float64
	PenaltySlash    float64

	JitterMin        time.Duration
	JitterMax        time.Duration
	SettlementWindow time.Duration
	ReviewDuration   time.Duration
	RejectionRate    float64
}

func DefaultRules() Rules {
	return Rules{
		InitialReputation: 50,
		MaxReputation:     100,
		SeniorThreshold:   80,
		MidThreshold:      60,
		VoteMultiplier:    0.02,
		CostLow:           5,
		CostHigh:          10,
		RewardConsensus:   5,
		PenaltySlash:      15,
		JitterMin:         1 * time.Minute,
		JitterMax:         60 * time.Minute,
		SettlementWindow:  7 * 24 * time.Hour,
		ReviewDuration:    2 * time.Hour,
		RejectionRate:     0.4,
	}
}

func (r Rules) Validate() error {
	if r.MaxReputation <= 0 {
		return errors.New("max reputation must be positive")
	}
	if r.InitialReputation < 0 || r.InitialReputation > r.MaxReputation {
		return fmt.Errorf("initial reputation %v must be within [0, %v]", r.InitialReputation, r.MaxReputation)
	}
	if r.SeniorThreshold < 0 || r.SeniorThreshold > r.MaxReputation {
		return fmt.Errorf("senior threshold %v must be within [0, %v]", r.SeniorThreshold, r.MaxReputation)
	}
	if r.VoteMultiplier <= 0 {
		return errors.New("vote multiplier must be positive")
	}
	if r.CostLow < 0 || r.CostHigh < 0 || r.RewardConsensus < 0 || r.PenaltySlash < 0 {
		return errors.New("costs, rewards and penalties must not be negative")
	}
	if r.JitterMin < 0 || r.JitterMax < r.JitterMin {
		return fmt.Errorf("jitter range [%s, %s] is invalid", r.JitterMin, r.JitterMax)
	}
	if r.SettlementWindow <= r.JitterMax {
		return fmt.Errorf("settlement window %s must exceed max jitter %s", r.SettlementWindow, r.JitterMax)
	}
	if r.ReviewDuration <= 0 {
		return errors.New("review duration must be positive")
	}
	if r.RejectionRate <= 0 || r.RejectionRate > 1 {
		return fmt.Errorf("rejection rate %v must be within (0, 1]", r.RejectionRate)
	}
	return nil
}

// VoteWeight is the influence of a vote cast at the given reputation.
func (r Rules) VoteWeight(reputation float64) float64 {
	return reputation * r.VoteMultiplier
}

func (r Rules) IsSenior(reputation float64) bool {
	return reputation >= r.SeniorThreshold
}

// PostCost charges higher-reputation posters less.
func (r Rules) PostCost(reputation float64) float64 {
	if reputation > r.MidThreshold {
		return r.CostLow
	}
	return r.CostHigh
}

func (r Rules) ClampReputation(v float64) float64 {
	return min(max(v, 0), r.MaxReputation)
}

// Payout is the reputation delta for a vote once the winning side is known.
func (r Rules) Payout(vote, winning VoteType) float64 {
	if vote == winning {
		return r.RewardConsensus
	}
	return -r.PenaltySlash
}

// TrustPercent maps a trust score onto a 0..100 display scale. Display only.
func TrustPercent(score float64) float64 {
	return min(max(50+score*5, 0), 100)
}
