package service

import (
	"context"
	"fmt"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RewardService tracks point proposals and ministry decisions. A proposal is
// decided exactly once; a second decision reports ErrInvalidTransition rather
// than overwriting.
type RewardService struct {
	rewardRepo repository.RewardRepository
	logger     zerolog.Logger
}

func NewRewardService(rewardRepo repository.RewardRepository, logger zerolog.Logger) *RewardService {
	return &RewardService{rewardRepo: rewardRepo, logger: logger}
}

type ProposeRewardRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Propose creates a pending proposal for the actor themselves. Ministry does
// not propose rewards; it decides them.
func (s *RewardService) Propose(ctx context.Context, actor model.Identity, req ProposeRewardRequest) (*model.RewardProposal, error) {
	if actor.Role == model.RoleMinistry {
		return nil, fmt.Errorf("ministry accounts may not propose rewards: %w", common.ErrForbidden)
	}
	if req.Points <= 0 {
		return nil, fmt.Errorf("points must be positive: %w", common.ErrValidation)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("a reason is required: %w", common.ErrValidation)
	}

	proposal := &model.RewardProposal{
		ID:     uuid.NewString(),
		UserID: actor.UserID,
		Points: req.Points,
		Reason: req.Reason,
		Status: model.RewardPending,
	}
	if err := s.rewardRepo.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	s.logger.Info().Str("proposal_id", proposal.ID).Int("points", proposal.Points).Msg("reward proposed")
	return proposal, nil
}

type DecideRewardRequest struct {
	Decision model.RewardDecision `json:"decision"`
}

func (s *RewardService) Decide(ctx context.Context, actor model.Identity, proposalID string, req DecideRewardRequest) error {
	if actor.Role != model.RoleMinistry {
		return fmt.Errorf("only ministry may decide rewards: %w", common.ErrForbidden)
	}
	if !req.Decision.Valid() {
		return fmt.Errorf("decision must be approve or reject: %w", common.ErrValidation)
	}

	if err := s.rewardRepo.Decide(ctx, proposalID, req.Decision.Status(), actor.UserID); err != nil {
		return err
	}

	s.logger.Info().Str("proposal_id", proposalID).Str("decision", string(req.Decision)).Msg("reward decided")
	return nil
}

type MyRewardsResponse struct {
	Proposals      []model.RewardProposal `json:"proposals"`
	ApprovedPoints int                    `json:"approved_points"`
}

func (s *RewardService) ListMine(ctx context.Context, actor model.Identity) (*MyRewardsResponse, error) {
	proposals, err := s.rewardRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	total, err := s.rewardRepo.ApprovedPointsTotal(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &MyRewardsResponse{Proposals: proposals, ApprovedPoints: total}, nil
}

func (s *RewardService) ListPending(ctx context.Context, actor model.Identity) ([]model.RewardProposal, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may review pending rewards: %w", common.ErrForbidden)
	}
	return s.rewardRepo.ListPending(ctx)
}
