package service

import (
	"context"
	"fmt"
	"time"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestService owns the waste-request state machine:
//
//	requested -> assigned -> collected -> segregated -> recycled
//	any non-terminal state -> cancelled
//
// Every transition is a compare-and-swap against the expected prior status,
// so two actors racing on the same request cannot lose an update. Segregation
// is accepted from collected or segregated (re-recording replaces the single
// record); recycling batches from segregated or recycled.
type RequestService struct {
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	logger      zerolog.Logger
}

func NewRequestService(requestRepo repository.RequestRepository, userRepo repository.UserRepository, logger zerolog.Logger) *RequestService {
	return &RequestService{requestRepo: requestRepo, userRepo: userRepo, logger: logger}
}

type CreateRequestRequest struct {
	Address       string              `json:"address"`
	Category      model.WasteCategory `json:"category"`
	QuantityKg    float64             `json:"quantity_kg"`
	PreferredDate string              `json:"preferred_date"` // YYYY-MM-DD
}

func (s *RequestService) CreateRequest(ctx context.Context, actor model.Identity, req CreateRequestRequest) (*model.WasteRequest, error) {
	if actor.Role != model.RoleCitizen {
		return nil, fmt.Errorf("only citizens may schedule pickups: %w", common.ErrForbidden)
	}
	if req.Address == "" {
		return nil, fmt.Errorf("pickup address is required: %w", common.ErrValidation)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("unknown waste category %q: %w", req.Category, common.ErrValidation)
	}
	if req.QuantityKg <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", common.ErrValidation)
	}
	preferredDate, err := time.Parse("2006-01-02", req.PreferredDate)
	if err != nil {
		return nil, fmt.Errorf("preferred date must be YYYY-MM-DD: %w", common.ErrValidation)
	}

	request := &model.WasteRequest{
		ID:            uuid.NewString(),
		CitizenID:     actor.UserID,
		Address:       req.Address,
		Category:      req.Category,
		QuantityKg:    req.QuantityKg,
		PreferredDate: preferredDate,
		Status:        model.StatusRequested,
	}
	if err := s.requestRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Str("request_id", request.ID).Str("category", string(request.Category)).Msg("pickup request created")
	return request, nil
}

func (s *RequestService) Assign(ctx context.Context, actor model.Identity, requestID, employeeID string) error {
	if actor.Role != model.RoleMinistry {
		return fmt.Errorf("only ministry may assign requests: %w", common.ErrForbidden)
	}

	employee, err := s.userRepo.FindByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("assignee not found: %w", err)
	}
	if employee.Role != model.RoleEmployee {
		return fmt.Errorf("assignee %s is not an employee: %w", employee.Username, common.ErrValidation)
	}

	err = s.requestRepo.UpdateStatus(ctx, requestID,
		[]model.RequestStatus{model.StatusRequested}, model.StatusAssigned, &employeeID)
	if err != nil {
		return err
	}

	s.logger.Info().Str("request_id", requestID).Str("employee_id", employeeID).Msg("request assigned")
	return nil
}

// requireAssignee loads the request and verifies the actor is the employee
// it was assigned to.
func (s *RequestService) requireAssignee(ctx context.Context, actor model.Identity, requestID string) (*model.WasteRequest, error) {
	if actor.Role != model.RoleEmployee {
		return nil, fmt.Errorf("only employees may record collection outcomes: %w", common.ErrForbidden)
	}
	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.AssignedEmployeeID == nil || *request.AssignedEmployeeID != actor.UserID {
		return nil, fmt.Errorf("request is not assigned to this employee: %w", common.ErrForbidden)
	}
	return request, nil
}

func (s *RequestService) MarkCollected(ctx context.Context, actor model.Identity, requestID string) error {
	if _, err := s.requireAssignee(ctx, actor, requestID); err != nil {
		return err
	}

	err := s.requestRepo.UpdateStatus(ctx, requestID,
		[]model.RequestStatus{model.StatusAssigned}, model.StatusCollected, nil)
	if err != nil {
		return err
	}

	s.logger.Info().Str("request_id", requestID).Msg("request collected")
	return nil
}

type SegregationRequest struct {
	OrganicKg    float64 `json:"organic_kg"`
	RecyclableKg float64 `json:"recyclable_kg"`
	HazardousKg  float64 `json:"hazardous_kg"`
	Notes        string  `json:"notes"`
}

func (s *RequestService) RecordSegregation(ctx context.Context, actor model.Identity, requestID string, req SegregationRequest) (*model.SegregationRecord, error) {
	if req.OrganicKg < 0 || req.RecyclableKg < 0 || req.HazardousKg < 0 {
		return nil, fmt.Errorf("segregated weights must not be negative: %w", common.ErrValidation)
	}
	if _, err := s.requireAssignee(ctx, actor, requestID); err != nil {
		return nil, err
	}

	rec := &model.SegregationRecord{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		OrganicKg:    req.OrganicKg,
		RecyclableKg: req.RecyclableKg,
		HazardousKg:  req.HazardousKg,
		Notes:        req.Notes,
	}
	err := s.requestRepo.SaveSegregation(ctx, rec,
		[]model.RequestStatus{model.StatusCollected, model.StatusSegregated})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("request_id", requestID).Msg("segregation recorded")
	return rec, nil
}

type RecyclingBatchRequest struct {
	Material       string  `json:"material"`
	OutputProduct  string  `json:"output_product"`
	OutputWeightKg float64 `json:"output_weight_kg"`
}

func (s *RequestService) LogRecyclingBatch(ctx context.Context, actor model.Identity, requestID string, req RecyclingBatchRequest) (*model.RecyclingBatch, error) {
	if req.Material == "" || req.OutputProduct == "" {
		return nil, fmt.Errorf("material and output product are required: %w", common.ErrValidation)
	}
	if req.OutputWeightKg < 0 {
		return nil, fmt.Errorf("output weight must not be negative: %w", common.ErrValidation)
	}
	if _, err := s.requireAssignee(ctx, actor, requestID); err != nil {
		return nil, err
	}

	batch := &model.RecyclingBatch{
		ID:             uuid.NewString(),
		RequestID:      requestID,
		Material:       req.Material,
		OutputProduct:  req.OutputProduct,
		OutputWeightKg: req.OutputWeightKg,
		ProcessedBy:    actor.UserID,
	}
	err := s.requestRepo.AddBatch(ctx, batch,
		[]model.RequestStatus{model.StatusSegregated, model.StatusRecycled})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("request_id", requestID).Str("material", batch.Material).Msg("recycling batch logged")
	return batch, nil
}

// Cancel is available to the owning citizen and to ministry, from any
// non-terminal state.
func (s *RequestService) Cancel(ctx context.Context, actor model.Identity, requestID string) error {
	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	switch actor.Role {
	case model.RoleMinistry:
	case model.RoleCitizen:
		if request.CitizenID != actor.UserID {
			return fmt.Errorf("request belongs to another citizen: %w", common.ErrForbidden)
		}
	default:
		return fmt.Errorf("employees may not cancel requests: %w", common.ErrForbidden)
	}

	err = s.requestRepo.UpdateStatus(ctx, requestID, []model.RequestStatus{
		model.StatusRequested, model.StatusAssigned, model.StatusCollected, model.StatusSegregated,
	}, model.StatusCancelled, nil)
	if err != nil {
		return err
	}

	s.logger.Info().Str("request_id", requestID).Msg("request cancelled")
	return nil
}

// RequestDetail is the full view of one request for the tracking page.
type RequestDetail struct {
	Request     *model.WasteRequest      `json:"request"`
	Segregation *model.SegregationRecord `json:"segregation,omitempty"`
	Batches     []model.RecyclingBatch   `json:"batches"`
}

func (s *RequestService) Get(ctx context.Context, actor model.Identity, requestID string) (*RequestDetail, error) {
	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	allowed := actor.Role == model.RoleMinistry ||
		(actor.Role == model.RoleCitizen && request.CitizenID == actor.UserID) ||
		(actor.Role == model.RoleEmployee && request.AssignedEmployeeID != nil && *request.AssignedEmployeeID == actor.UserID)
	if !allowed {
		return nil, fmt.Errorf("request is not visible to this user: %w", common.ErrForbidden)
	}

	detail := &RequestDetail{Request: request, Batches: []model.RecyclingBatch{}}
	if rec, err := s.requestRepo.GetSegregation(ctx, requestID); err == nil {
		detail.Segregation = rec
	}
	if batches, err := s.requestRepo.ListBatches(ctx, requestID); err == nil {
		detail.Batches = batches
	}
	return detail, nil
}

func (s *RequestService) ListMine(ctx context.Context, actor model.Identity) ([]model.WasteRequest, error) {
	if actor.Role != model.RoleCitizen {
		return nil, fmt.Errorf("only citizens track their own requests: %w", common.ErrForbidden)
	}
	return s.requestRepo.ListByCitizen(ctx, actor.UserID)
}

func (s *RequestService) ListAssigned(ctx context.Context, actor model.Identity) ([]model.WasteRequest, error) {
	if actor.Role != model.RoleEmployee {
		return nil, fmt.Errorf("only employees have assigned pickups: %w", common.ErrForbidden)
	}
	return s.requestRepo.ListAssigned(ctx, actor.UserID)
}

// ListQueue returns the ministry triage queue: unassigned requests oldest
// first.
func (s *RequestService) ListQueue(ctx context.Context, actor model.Identity) ([]model.WasteRequest, error) {
	if actor.Role != model.RoleMinistry {
		return nil, fmt.Errorf("only ministry may view the triage queue: %w", common.ErrForbidden)
	}
	return s.requestRepo.ListQueue(ctx)
}
