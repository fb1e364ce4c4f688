package repository

import (
	"context"
	"database/sql"
	"fmt"
	"wastewise/internal/domain/model"
)

// ReportRepository is read-only; every projection returns an empty or zeroed
// result over an empty store.
type ReportRepository interface {
	CountRequestsByStatus(ctx context.Context) ([]model.StatusCount, error)
	SegregationTotals(ctx context.Context) (*model.SegregationTotals, error)
	RecyclingOutputByMaterial(ctx context.Context) ([]model.MaterialOutput, error)
}

type pgReportRepository struct {
	db *sql.DB
}

func NewPgReportRepository(db *sql.DB) ReportRepository {
	return &pgReportRepository{db: db}
}

func (r *pgReportRepository) CountRequestsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM waste_requests GROUP BY status ORDER BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgReportRepository.CountRequestsByStatus: %w", err)
	}
	defer rows.Close()

	counts := []model.StatusCount{}
	for rows.Next() {
		var sc model.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("pgReportRepository.CountRequestsByStatus scan: %w", err)
		}
		counts = append(counts, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReportRepository.CountRequestsByStatus rows.Err: %w", err)
	}
	return counts, nil
}

func (r *pgReportRepository) SegregationTotals(ctx context.Context) (*model.SegregationTotals, error) {
	query := `SELECT COALESCE(SUM(organic_kg), 0), COALESCE(SUM(recyclable_kg), 0), COALESCE(SUM(hazardous_kg), 0)
	          FROM segregation_records`
	totals := &model.SegregationTotals{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&totals.OrganicKg, &totals.RecyclableKg, &totals.HazardousKg); err != nil {
		return nil, fmt.Errorf("pgReportRepository.SegregationTotals: %w", err)
	}
	return totals, nil
}

func (r *pgReportRepository) RecyclingOutputByMaterial(ctx context.Context) ([]model.MaterialOutput, error) {
	query := `SELECT material, COALESCE(SUM(output_weight_kg), 0)
	          FROM recycling_batches GROUP BY material ORDER BY material`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgReportRepository.RecyclingOutputByMaterial: %w", err)
	}
	defer rows.Close()

	outputs := []model.MaterialOutput{}
	for rows.Next() {
		var mo model.MaterialOutput
		if err := rows.Scan(&mo.Material, &mo.OutputKg); err != nil {
			return nil, fmt.Errorf("pgReportRepository.RecyclingOutputByMaterial scan: %w", err)
		}
		outputs = append(outputs, mo)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReportRepository.RecyclingOutputByMaterial rows.Err: %w", err)
	}
	return outputs, nil
}
