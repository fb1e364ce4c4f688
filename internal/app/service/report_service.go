package service

import (
	"context"
	"fmt"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"
)

// ReportService exposes the read-only operational rollups. No mutation ever
// happens here.
type ReportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) *ReportService {
	return &ReportService{reportRepo: reportRepo}
}

func (s *ReportService) RequestsByStatus(ctx context.Context, actor model.Identity) ([]model.StatusCount, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may view reports: %w", common.ErrForbidden)
	}
	return s.reportRepo.CountRequestsByStatus(ctx)
}

func (s *ReportService) SegregationTotals(ctx context.Context, actor model.Identity) (*model.SegregationTotals, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may view reports: %w", common.ErrForbidden)
	}
	return s.reportRepo.SegregationTotals(ctx)
}

func (s *ReportService) RecyclingOutputByMaterial(ctx context.Context, actor model.Identity) ([]model.MaterialOutput, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may view reports: %w", common.ErrForbidden)
	}
	return s.reportRepo.RecyclingOutputByMaterial(ctx)
}
