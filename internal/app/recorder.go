package app

import "github.com/pscheid92/veritas/internal/domain"

// Recorder receives lifecycle measurements. The metrics adapter implements it.
type Recorder interface {
	RumorCreated()
	VoteCast(voteType domain.VoteType)
	Transition(from, to domain.Status, trigger domain.Trigger)
	ReputationAdjusted(delta float64)
	SweepFailed(stage string)
}

type nopRecorder struct{}

func (nopRecorder) RumorCreated() {}

func (nopRecorder) VoteCast(domain.VoteType) {}

func (nopRecorder) Transition(domain.Status, domain.Status, domain.Trigger) {}

func (nopRecorder) ReputationAdjusted(float64) {}

func (nopRecorder) SweepFailed(string) {}
