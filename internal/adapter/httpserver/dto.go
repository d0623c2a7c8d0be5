package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/veritas/internal/domain"
)

type rumorResponse struct {
	ID           uuid.UUID     `json:"id"`
	AuthorID     uuid.UUID     `json:"authorId"`
	Content      string        `json:"content"`
	Status       domain.Status `json:"status"`
	TrustScore   float64       `json:"trustScore"`
	TrustPercent float64       `json:"trustPercent"`
	VisibleAt    time.Time     `json:"visibleAt"`
	SettlesAt    time.Time     `json:"settlesAt"`
	CreatedAt    time.Time     `json:"createdAt"`
	MyVote       *voteResponse `json:"myVote"`
}

type voteResponse struct {
	UserID    uuid.UUID `json:"userId"`
	RumorID   uuid.UUID `json:"rumorId"`
	Type      int       `json:"type"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
}

type transitionResponse struct {
	RumorID uuid.UUID      `json:"rumorId"`
	From    domain.Status  `json:"from"`
	To      domain.Status  `json:"to"`
	Trigger domain.Trigger `json:"trigger"`
	At      time.Time      `json:"at"`
}

type createRumorRequest struct {
	Content string `json:"content"`
}

type createRumorResponse struct {
	Rumor            rumorResponse `json:"rumor"`
	NewReputation    float64       `json:"newReputation"`
	VisibleAt        time.Time     `json:"visibleAt"`
	VisibleInMinutes int           `json:"visibleInMinutes"`
}

type castVoteRequest struct {
	RumorID string `json:"rumorId"`
	Type    int    `json:"type"`
}

type castVoteResponse struct {
	Vote              voteResponse        `json:"vote"`
	UpdatedTrustScore float64             `json:"updatedTrustScore"`
	KillSwitchResult  *transitionResponse `json:"killSwitchResult"`
}

type feedResponse struct {
	Rumors   []rumorResponse `json:"rumors"`
	IsSenior bool            `json:"isSenior"`
}

type settleResponse struct {
	Status domain.Status `json:"status"`
}

type voteStatsResponse struct {
	Total   int `json:"total"`
	Verify  int `json:"verify"`
	Dispute int `json:"dispute"`
}

type rulesResponse struct {
	InitialReputation float64 `json:"repInitial"`
	MaxReputation     float64 `json:"repMax"`
	SeniorThreshold   float64 `json:"repSenior"`
	VoteMultiplier    float64 `json:"voteMultiplier"`
	CostLow           float64 `json:"costPostLow"`
	CostHigh          float64 `json:"costPostHigh"`
	RewardConsensus   float64 `json:"rewardConsensus"`
	PenaltySlash      float64 `json:"penaltySlash"`
	SettlementHours   float64 `json:"settlementHours"`
	ReviewMinutes     float64 `json:"reviewMinutes"`
	RejectionRate     float64 `json:"rejectionRate"`
}

type profileResponse struct {
	ID         uuid.UUID         `json:"id"`
	Reputation float64           `json:"reputation"`
	VotePower  float64           `json:"votePower"`
	PostCost   float64           `json:"postCost"`
	IsSenior   bool              `json:"isSenior"`
	JoinedAt   time.Time         `json:"joinedAt"`
	Stats      voteStatsResponse `json:"stats"`
	Rules      rulesResponse     `json:"rules"`
}

func toRumorResponse(r domain.Rumor, myVote *domain.Vote) rumorResponse {
	resp := rumorResponse{
		ID:           r.ID,
		AuthorID:     r.AuthorID,
		Content:      r.Content,
		Status:       r.Status,
		TrustScore:   r.TrustScore,
		TrustPercent: domain.TrustPercent(r.TrustScore),
		VisibleAt:    r.VisibleAt,
		SettlesAt:    r.SettlesAt,
		CreatedAt:    r.CreatedAt,
	}
	if myVote != nil {
		v := toVoteResponse(*myVote)
		resp.MyVote = &v
	}
	return resp
}

func toVoteResponse(v domain.Vote) voteResponse {
	return voteResponse{
		UserID:    v.UserID,
		RumorID:   v.RumorID,
		Type:      int(v.Type),
		Weight:    v.Weight,
		CreatedAt: v.CreatedAt,
	}
}

func toTransitionResponse(t *domain.Transition) *transitionResponse {
	if t == nil {
		return nil
	}
	return &transitionResponse{
		RumorID: t.RumorID,
		From:    t.From,
		To:      t.To,
		Trigger: t.Trigger,
		At:      t.At,
	}
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		ID:         p.User.ID,
		Reputation: p.User.Reputation,
		VotePower:  p.VotePower,
		PostCost:   p.PostCost,
		IsSenior:   p.IsSenior,
		JoinedAt:   p.User.CreatedAt,
		Stats: voteStatsResponse{
			Total:   p.Stats.Total,
			Verify:  p.Stats.Verify,
			Dispute: p.Stats.Dispute,
		},
		Rules: rulesResponse{
			InitialReputation: p.Rules.InitialReputation,
			MaxReputation:     p.Rules.MaxReputation,
			SeniorThreshold:   p.Rules.SeniorThreshold,
			VoteMultiplier:    p.Rules.VoteMultiplier,
			CostLow:           p.Rules.CostLow,
			CostHigh:          p.Rules.CostHigh,
			RewardConsensus:   p.Rules.RewardConsensus,
			PenaltySlash:      p.Rules.PenaltySlash,
			SettlementHours:   p.Rules.SettlementWindow.Hours(),
			ReviewMinutes:     p.Rules.ReviewDuration.Minutes(),
			RejectionRate:     p.Rules.RejectionRate,
		},
	}
}
