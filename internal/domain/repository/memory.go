package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
)

// Memory is an in-memory implementation of every repository interface. It
// backs the service tests and mirrors the transition semantics of the pg
// implementations, CAS preconditions included.
type Memory struct {
	mu           sync.Mutex
	users        map[string]model.User
	requests     map[string]model.WasteRequest
	requestOrder []string
	segregations map[string]model.SegregationRecord // keyed by request ID
	batches      map[string][]model.RecyclingBatch  // keyed by request ID
	rewards      map[string]model.RewardProposal
	rewardOrder  []string
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]model.User),
		requests:     make(map[string]model.WasteRequest),
		segregations: make(map[string]model.SegregationRecord),
		batches:      make(map[string][]model.RecyclingBatch),
		rewards:      make(map[string]model.RewardProposal),
	}
}

var _ UserRepository = (*Memory)(nil)
var _ RequestRepository = (*Memory)(nil)
var _ RewardRepository = (*Memory)(nil)
var _ ReportRepository = (*Memory)(nil)

// ---- UserRepository ----

func (m *Memory) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *Memory) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := u
	return &out, nil
}

func (m *Memory) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *Memory) List(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []model.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users, nil
}

func (m *Memory) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []model.User{}
	for _, u := range m.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users, nil
}

func (m *Memory) CountByRole(ctx context.Context, role model.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

// ---- RequestRepository ----

func (m *Memory) CreateRequest(ctx context.Context, req *model.WasteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	m.requests[req.ID] = *req
	m.requestOrder = append(m.requestOrder, req.ID)
	return nil
}

func (m *Memory) FindRequestByID(ctx context.Context, id string) (*model.WasteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := req
	return &out, nil
}

func statusIn(status model.RequestStatus, from []model.RequestStatus) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}

func (m *Memory) casLocked(id string, from []model.RequestStatus, to model.RequestStatus, employeeID *string) error {
	req, ok := m.requests[id]
	if !ok {
		return common.ErrNotFound
	}
	if !statusIn(req.Status, from) {
		return fmt.Errorf("request is %s: %w", req.Status, common.ErrInvalidTransition)
	}
	req.Status = to
	if employeeID != nil {
		eid := *employeeID
		req.AssignedEmployeeID = &eid
	}
	req.UpdatedAt = time.Now()
	m.requests[id] = req
	return nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, from []model.RequestStatus, to model.RequestStatus, employeeID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.casLocked(id, from, to, employeeID)
}

func (m *Memory) SaveSegregation(ctx context.Context, rec *model.SegregationRecord, from []model.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.casLocked(rec.RequestID, from, model.StatusSegregated, nil); err != nil {
		return err
	}
	if existing, ok := m.segregations[rec.RequestID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = time.Now()
	}
	m.segregations[rec.RequestID] = *rec
	return nil
}

func (m *Memory) AddBatch(ctx context.Context, batch *model.RecyclingBatch, from []model.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.casLocked(batch.RequestID, from, model.StatusRecycled, nil); err != nil {
		return err
	}
	batch.ProcessedAt = time.Now()
	m.batches[batch.RequestID] = append(m.batches[batch.RequestID], *batch)
	return nil
}

func (m *Memory) listRequestsLocked(keep func(model.WasteRequest) bool) []model.WasteRequest {
	requests := []model.WasteRequest{}
	for _, id := range m.requestOrder {
		req := m.requests[id]
		if keep(req) {
			requests = append(requests, req)
		}
	}
	return requests
}

func (m *Memory) ListByCitizen(ctx context.Context, citizenID string) ([]model.WasteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := m.listRequestsLocked(func(r model.WasteRequest) bool { return r.CitizenID == citizenID })
	// Newest first, matching the pg ordering.
	for i, j := 0, len(requests)-1; i < j; i, j = i+1, j-1 {
		requests[i], requests[j] = requests[j], requests[i]
	}
	return requests, nil
}

func (m *Memory) ListAssigned(ctx context.Context, employeeID string) ([]model.WasteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := []model.RequestStatus{model.StatusAssigned, model.StatusCollected, model.StatusSegregated}
	requests := m.listRequestsLocked(func(r model.WasteRequest) bool {
		return r.AssignedEmployeeID != nil && *r.AssignedEmployeeID == employeeID && statusIn(r.Status, active)
	})
	sort.SliceStable(requests, func(i, j int) bool { return requests[i].PreferredDate.Before(requests[j].PreferredDate) })
	return requests, nil
}

func (m *Memory) ListQueue(ctx context.Context) ([]model.WasteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listRequestsLocked(func(r model.WasteRequest) bool { return r.Status == model.StatusRequested }), nil
}

func (m *Memory) GetSegregation(ctx context.Context, requestID string) (*model.SegregationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.segregations[requestID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (m *Memory) ListBatches(ctx context.Context, requestID string) ([]model.RecyclingBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RecyclingBatch{}, m.batches[requestID]...), nil
}

// ---- RewardRepository ----

func (m *Memory) CreateProposal(ctx context.Context, proposal *model.RewardProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now
	m.rewards[proposal.ID] = *proposal
	m.rewardOrder = append(m.rewardOrder, proposal.ID)
	return nil
}

func (m *Memory) FindProposalByID(ctx context.Context, id string) (*model.RewardProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rewards[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *Memory) Decide(ctx context.Context, id string, status model.RewardStatus, decidedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rewards[id]
	if !ok {
		return common.ErrNotFound
	}
	if p.Status != model.RewardPending {
		return fmt.Errorf("proposal is already %s: %w", p.Status, common.ErrInvalidTransition)
	}
	p.Status = status
	p.DecidedBy = &decidedBy
	p.UpdatedAt = time.Now()
	m.rewards[id] = p
	return nil
}

func (m *Memory) ListByUser(ctx context.Context, userID string) ([]model.RewardProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proposals := []model.RewardProposal{}
	for i := len(m.rewardOrder) - 1; i >= 0; i-- {
		if p := m.rewards[m.rewardOrder[i]]; p.UserID == userID {
			proposals = append(proposals, p)
		}
	}
	return proposals, nil
}

func (m *Memory) ListPending(ctx context.Context) ([]model.RewardProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proposals := []model.RewardProposal{}
	for _, id := range m.rewardOrder {
		if p := m.rewards[id]; p.Status == model.RewardPending {
			proposals = append(proposals, p)
		}
	}
	return proposals, nil
}

func (m *Memory) ApprovedPointsTotal(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, p := range m.rewards {
		if p.UserID == userID && p.Status == model.RewardApproved {
			total += p.Points
		}
	}
	return total, nil
}

// ---- ReportRepository ----

func (m *Memory) CountRequestsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStatus := map[model.RequestStatus]int{}
	for _, r := range m.requests {
		byStatus[r.Status]++
	}
	counts := []model.StatusCount{}
	for status, n := range byStatus {
		counts = append(counts, model.StatusCount{Status: status, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts, nil
}

func (m *Memory) SegregationTotals(ctx context.Context) (*model.SegregationTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := &model.SegregationTotals{}
	for _, rec := range m.segregations {
		totals.OrganicKg += rec.OrganicKg
		totals.RecyclableKg += rec.RecyclableKg
		totals.HazardousKg += rec.HazardousKg
	}
	return totals, nil
}

func (m *Memory) RecyclingOutputByMaterial(ctx context.Context) ([]model.MaterialOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byMaterial := map[string]float64{}
	for _, list := range m.batches {
		for _, b := range list {
			byMaterial[b.Material] += b.OutputWeightKg
		}
	}
	outputs := []model.MaterialOutput{}
	for material, kg := range byMaterial {
		outputs = append(outputs, model.MaterialOutput{Material: material, OutputKg: kg})
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Material < outputs[j].Material })
	return outputs, nil
}
