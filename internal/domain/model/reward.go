package model

import "time"

type RewardStatus string
type RewardDecision string

const (
	RewardPending  RewardStatus = "pending"
	RewardApproved RewardStatus = "approved"
	RewardRejected RewardStatus = "rejected"

	DecisionApprove RewardDecision = "approve"
	DecisionReject  RewardDecision = "reject"
)

func (d RewardDecision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

func (d RewardDecision) Status() RewardStatus {
	if d == DecisionApprove {
		return RewardApproved
	}
	return RewardRejected
}

type RewardProposal struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Points     int          `json:"points"`
	Reason     string       `json:"reason"`
	Status     RewardStatus `json:"status"`
	DecidedBy  *string      `json:"decided_by,omitempty"` // Ministry actor, once decided
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	UserName   *string      `json:"user_name,omitempty"` // For display
	UserRole   *Role        `json:"user_role,omitempty"` // For display
}
