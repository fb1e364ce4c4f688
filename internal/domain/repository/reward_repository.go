package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
)

type RewardRepository interface {
	CreateProposal(ctx context.Context, proposal *model.RewardProposal) error
	FindProposalByID(ctx context.Context, id string) (*model.RewardProposal, error)

	// Decide transitions a proposal out of pending exactly once; a proposal
	// already decided reports ErrInvalidTransition.
	Decide(ctx context.Context, id string, status model.RewardStatus, decidedBy string) error

	ListByUser(ctx context.Context, userID string) ([]model.RewardProposal, error)
	ListPending(ctx context.Context) ([]model.RewardProposal, error)
	ApprovedPointsTotal(ctx context.Context, userID string) (int, error)
}

type pgRewardRepository struct {
	db *sql.DB
}

func NewPgRewardRepository(db *sql.DB) RewardRepository {
	return &pgRewardRepository{db: db}
}

func (r *pgRewardRepository) CreateProposal(ctx context.Context, proposal *model.RewardProposal) error {
	query := `INSERT INTO rewards (id, user_id, points, reason, status)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, proposal.ID, proposal.UserID, proposal.Points, proposal.Reason, proposal.Status)
	if err != nil {
		return fmt.Errorf("pgRewardRepository.CreateProposal: %w", err)
	}
	return nil
}

const rewardSelect = `
	SELECT rw.id, rw.user_id, rw.points, rw.reason, rw.status, rw.approved_by,
	       rw.created_at, rw.updated_at, u.full_name AS user_name, u.role AS user_role
	FROM rewards rw
	JOIN users u ON rw.user_id = u.id`

func (r *pgRewardRepository) FindProposalByID(ctx context.Context, id string) (*model.RewardProposal, error) {
	proposal := &model.RewardProposal{}
	err := r.db.QueryRowContext(ctx, rewardSelect+` WHERE rw.id = $1`, id).Scan(
		&proposal.ID, &proposal.UserID, &proposal.Points, &proposal.Reason, &proposal.Status,
		&proposal.DecidedBy, &proposal.CreatedAt, &proposal.UpdatedAt, &proposal.UserName, &proposal.UserRole,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRewardRepository.FindProposalByID: %w", err)
	}
	return proposal, nil
}

func (r *pgRewardRepository) Decide(ctx context.Context, id string, status model.RewardStatus, decidedBy string) error {
	query := `UPDATE rewards SET status = $1, approved_by = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, status, decidedBy, id)
	if err != nil {
		return fmt.Errorf("pgRewardRepository.Decide: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgRewardRepository.Decide rows affected: %w", err)
	}
	if affected == 0 {
		var current model.RewardStatus
		err := r.db.QueryRowContext(ctx, `SELECT status FROM rewards WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("pgRewardRepository.Decide status check: %w", err)
		}
		return fmt.Errorf("proposal is already %s: %w", current, common.ErrInvalidTransition)
	}
	return nil
}

func (r *pgRewardRepository) ListByUser(ctx context.Context, userID string) ([]model.RewardProposal, error) {
	query := rewardSelect + ` WHERE rw.user_id = $1 ORDER BY rw.created_at DESC`
	return r.queryProposals(ctx, query, userID)
}

func (r *pgRewardRepository) ListPending(ctx context.Context) ([]model.RewardProposal, error) {
	query := rewardSelect + ` WHERE rw.status = 'pending' ORDER BY rw.created_at ASC`
	return r.queryProposals(ctx, query)
}

func (r *pgRewardRepository) queryProposals(ctx context.Context, query string, args ...interface{}) ([]model.RewardProposal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgRewardRepository.queryProposals: %w", err)
	}
	defer rows.Close()

	proposals := []model.RewardProposal{}
	for rows.Next() {
		var p model.RewardProposal
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Points, &p.Reason, &p.Status,
			&p.DecidedBy, &p.CreatedAt, &p.UpdatedAt, &p.UserName, &p.UserRole,
		); err != nil {
			return nil, fmt.Errorf("pgRewardRepository.queryProposals scan: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRewardRepository.queryProposals rows.Err: %w", err)
	}
	return proposals, nil
}

func (r *pgRewardRepository) ApprovedPointsTotal(ctx context.Context, userID string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(points), 0) FROM rewards WHERE user_id = $1 AND status = 'approved'`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgRewardRepository.ApprovedPointsTotal: %w", err)
	}
	return total, nil
}
