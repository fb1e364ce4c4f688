package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
)

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *model.WasteRequest) error
	FindRequestByID(ctx context.Context, id string) (*model.WasteRequest, error)

	// UpdateStatus performs a compare-and-swap transition: the row is updated
	// only if its current status is one of from. A non-nil employeeID records
	// the assignment alongside the transition. Zero rows updated surfaces as
	// ErrInvalidTransition (or ErrNotFound when the request does not exist).
	UpdateStatus(ctx context.Context, id string, from []model.RequestStatus, to model.RequestStatus, employeeID *string) error

	// SaveSegregation upserts the single segregation record for a request and
	// moves the request to segregated, atomically.
	SaveSegregation(ctx context.Context, rec *model.SegregationRecord, from []model.RequestStatus) error

	// AddBatch inserts a recycling batch row and moves the request to
	// recycled, atomically.
	AddBatch(ctx context.Context, batch *model.RecyclingBatch, from []model.RequestStatus) error

	ListByCitizen(ctx context.Context, citizenID string) ([]model.WasteRequest, error)
	ListAssigned(ctx context.Context, employeeID string) ([]model.WasteRequest, error)
	ListQueue(ctx context.Context) ([]model.WasteRequest, error)

	GetSegregation(ctx context.Context, requestID string) (*model.SegregationRecord, error)
	ListBatches(ctx context.Context, requestID string) ([]model.RecyclingBatch, error)
}

type pgRequestRepository struct {
	db *sql.DB
}

func NewPgRequestRepository(db *sql.DB) RequestRepository {
	return &pgRequestRepository{db: db}
}

func (r *pgRequestRepository) CreateRequest(ctx context.Context, req *model.WasteRequest) error {
	query := `INSERT INTO waste_requests (id, citizen_id, address, category, quantity_kg, preferred_date, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, req.ID, req.CitizenID, req.Address, req.Category, req.QuantityKg, req.PreferredDate, req.Status)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.CreateRequest: %w", err)
	}
	return nil
}

const requestSelect = `
	SELECT r.id, r.citizen_id, r.address, r.category, r.quantity_kg, r.preferred_date,
	       r.status, r.assigned_employee_id, r.created_at, r.updated_at,
	       c.full_name AS citizen_name, e.full_name AS employee_name
	FROM waste_requests r
	JOIN users c ON r.citizen_id = c.id
	LEFT JOIN users e ON r.assigned_employee_id = e.id`

func (r *pgRequestRepository) FindRequestByID(ctx context.Context, id string) (*model.WasteRequest, error) {
	req := &model.WasteRequest{}
	err := r.db.QueryRowContext(ctx, requestSelect+` WHERE r.id = $1`, id).Scan(
		&req.ID, &req.CitizenID, &req.Address, &req.Category, &req.QuantityKg, &req.PreferredDate,
		&req.Status, &req.AssignedEmployeeID, &req.CreatedAt, &req.UpdatedAt,
		&req.CitizenName, &req.EmployeeName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRequestRepository.FindRequestByID: %w", err)
	}
	return req, nil
}

// statusPlaceholders renders ($n, $n+1, ...) for an IN clause and appends the
// statuses to args.
func statusPlaceholders(from []model.RequestStatus, args *[]interface{}, argID int) string {
	placeholders := make([]string, len(from))
	for i, s := range from {
		placeholders[i] = fmt.Sprintf("$%d", argID+i)
		*args = append(*args, s)
	}
	return strings.Join(placeholders, ",")
}

func (r *pgRequestRepository) UpdateStatus(ctx context.Context, id string, from []model.RequestStatus, to model.RequestStatus, employeeID *string) error {
	args := []interface{}{to, id}
	var query strings.Builder
	query.WriteString(`UPDATE waste_requests SET status = $1, updated_at = CURRENT_TIMESTAMP`)
	if employeeID != nil {
		args = append(args, *employeeID)
		query.WriteString(`, assigned_employee_id = $3`)
	}
	in := statusPlaceholders(from, &args, len(args)+1)
	query.WriteString(fmt.Sprintf(` WHERE id = $2 AND status IN (%s)`, in))

	res, err := r.db.ExecContext(ctx, query.String(), args...)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.UpdateStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgRequestRepository.UpdateStatus rows affected: %w", err)
	}
	if affected == 0 {
		return r.transitionFailure(ctx, id)
	}
	return nil
}

// transitionFailure distinguishes a missing row from a status precondition
// miss after a CAS update touched nothing.
func (r *pgRequestRepository) transitionFailure(ctx context.Context, id string) error {
	var current model.RequestStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM waste_requests WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("pgRequestRepository.transitionFailure: %w", err)
	}
	return fmt.Errorf("request is %s: %w", current, common.ErrInvalidTransition)
}

func (r *pgRequestRepository) SaveSegregation(ctx context.Context, rec *model.SegregationRecord, from []model.RequestStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.SaveSegregation begin: %w", err)
	}
	defer tx.Rollback()

	args := []interface{}{model.StatusSegregated, rec.RequestID}
	in := statusPlaceholders(from, &args, 3)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE waste_requests SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status IN (%s)`, in),
		args...)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.SaveSegregation status: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("pgRequestRepository.SaveSegregation rows affected: %w", err)
	} else if affected == 0 {
		return r.transitionFailure(ctx, rec.RequestID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO segregation_records (id, request_id, organic_kg, recyclable_kg, hazardous_kg, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO UPDATE SET
			organic_kg = EXCLUDED.organic_kg,
			recyclable_kg = EXCLUDED.recyclable_kg,
			hazardous_kg = EXCLUDED.hazardous_kg,
			notes = EXCLUDED.notes`,
		rec.ID, rec.RequestID, rec.OrganicKg, rec.RecyclableKg, rec.HazardousKg, rec.Notes)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.SaveSegregation upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgRequestRepository.SaveSegregation commit: %w", err)
	}
	return nil
}

func (r *pgRequestRepository) AddBatch(ctx context.Context, batch *model.RecyclingBatch, from []model.RequestStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.AddBatch begin: %w", err)
	}
	defer tx.Rollback()

	args := []interface{}{model.StatusRecycled, batch.RequestID}
	in := statusPlaceholders(from, &args, 3)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE waste_requests SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status IN (%s)`, in),
		args...)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.AddBatch status: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("pgRequestRepository.AddBatch rows affected: %w", err)
	} else if affected == 0 {
		return r.transitionFailure(ctx, batch.RequestID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recycling_batches (id, request_id, material, output_product, output_weight_kg, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		batch.ID, batch.RequestID, batch.Material, batch.OutputProduct, batch.OutputWeightKg, batch.ProcessedBy)
	if err != nil {
		return fmt.Errorf("pgRequestRepository.AddBatch insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgRequestRepository.AddBatch commit: %w", err)
	}
	return nil
}

func (r *pgRequestRepository) ListByCitizen(ctx context.Context, citizenID string) ([]model.WasteRequest, error) {
	query := requestSelect + ` WHERE r.citizen_id = $1 ORDER BY r.created_at DESC`
	return r.queryRequests(ctx, query, citizenID)
}

func (r *pgRequestRepository) ListAssigned(ctx context.Context, employeeID string) ([]model.WasteRequest, error) {
	query := requestSelect + ` WHERE r.assigned_employee_id = $1
		AND r.status IN ('assigned','collected','segregated')
		ORDER BY r.preferred_date ASC`
	return r.queryRequests(ctx, query, employeeID)
}

// ListQueue returns unassigned requests oldest-first so ministry triage is
// first-come first-served.
func (r *pgRequestRepository) ListQueue(ctx context.Context) ([]model.WasteRequest, error) {
	query := requestSelect + ` WHERE r.status = 'requested' ORDER BY r.created_at ASC`
	return r.queryRequests(ctx, query)
}

func (r *pgRequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]model.WasteRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgRequestRepository.queryRequests: %w", err)
	}
	defer rows.Close()

	requests := []model.WasteRequest{}
	for rows.Next() {
		var req model.WasteRequest
		if err := rows.Scan(
			&req.ID, &req.CitizenID, &req.Address, &req.Category, &req.QuantityKg, &req.PreferredDate,
			&req.Status, &req.AssignedEmployeeID, &req.CreatedAt, &req.UpdatedAt,
			&req.CitizenName, &req.EmployeeName,
		); err != nil {
			return nil, fmt.Errorf("pgRequestRepository.queryRequests scan: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRequestRepository.queryRequests rows.Err: %w", err)
	}
	return requests, nil
}

func (r *pgRequestRepository) GetSegregation(ctx context.Context, requestID string) (*model.SegregationRecord, error) {
	query := `SELECT id, request_id, organic_kg, recyclable_kg, hazardous_kg, notes, created_at
	          FROM segregation_records WHERE request_id = $1`
	rec := &model.SegregationRecord{}
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&rec.ID, &rec.RequestID, &rec.OrganicKg, &rec.RecyclableKg, &rec.HazardousKg, &rec.Notes, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRequestRepository.GetSegregation: %w", err)
	}
	return rec, nil
}

func (r *pgRequestRepository) ListBatches(ctx context.Context, requestID string) ([]model.RecyclingBatch, error) {
	query := `SELECT id, request_id, material, output_product, output_weight_kg, processed_by, processed_at
	          FROM recycling_batches WHERE request_id = $1 ORDER BY processed_at ASC`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("pgRequestRepository.ListBatches: %w", err)
	}
	defer rows.Close()

	batches := []model.RecyclingBatch{}
	for rows.Next() {
		var b model.RecyclingBatch
		if err := rows.Scan(&b.ID, &b.RequestID, &b.Material, &b.OutputProduct, &b.OutputWeightKg, &b.ProcessedBy, &b.ProcessedAt); err != nil {
			return nil, fmt.Errorf("pgRequestRepository.ListBatches scan: %w", err)
		}
		batches = append(batches, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRequestRepository.ListBatches rows.Err: %w", err)
	}
	return batches, nil
}
