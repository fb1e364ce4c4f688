package service

import (
	"context"
	"testing"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RequestLifecycleSuite struct {
	suite.Suite
	store    *repository.Memory
	service  *RequestService
	citizen  model.Identity
	employee model.Identity
	ministry model.Identity
}

func TestRequestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(RequestLifecycleSuite))
}

func (s *RequestLifecycleSuite) SetupTest() {
	s.store = repository.NewMemory()
	s.service = NewRequestService(s.store, s.store, zerolog.Nop())

	ctx := context.Background()
	seed := []struct {
		id   string
		role model.Role
	}{
		{"citizen-1", model.RoleCitizen},
		{"employee-1", model.RoleEmployee},
		{"employee-2", model.RoleEmployee},
		{"ministry-1", model.RoleMinistry},
	}
	for _, u := range seed {
		err := s.store.Create(ctx, &model.User{
			ID: u.id, Username: u.id + "@example.org", FullName: u.id, Role: u.role, PasswordHash: "x",
		})
		s.Require().NoError(err)
	}
	s.citizen = model.Identity{UserID: "citizen-1", Role: model.RoleCitizen}
	s.employee = model.Identity{UserID: "employee-1", Role: model.RoleEmployee}
	s.ministry = model.Identity{UserID: "ministry-1", Role: model.RoleMinistry}
}

func (s *RequestLifecycleSuite) createRequest() *model.WasteRequest {
	req, err := s.service.CreateRequest(context.Background(), s.citizen, CreateRequestRequest{
		Address:       "12 Harbour Rd",
		Category:      model.CategoryOrganic,
		QuantityKg:    5.0,
		PreferredDate: "2026-09-01",
	})
	s.Require().NoError(err)
	return req
}

func (s *RequestLifecycleSuite) TestCreateRequest() {
	ctx := context.Background()

	s.Run("valid request starts unassigned", func() {
		req := s.createRequest()
		s.Equal(model.StatusRequested, req.Status)
		s.Nil(req.AssignedEmployeeID)
	})

	s.Run("non-positive quantity rejected for every category", func() {
		for _, category := range []model.WasteCategory{
			model.CategoryMixed, model.CategoryOrganic, model.CategoryRecyclable, model.CategoryHazardous,
		} {
			for _, quantity := range []float64{0, -1.5} {
				_, err := s.service.CreateRequest(ctx, s.citizen, CreateRequestRequest{
					Address: "a", Category: category, QuantityKg: quantity, PreferredDate: "2026-09-01",
				})
				s.ErrorIs(err, common.ErrValidation)
			}
		}
	})

	s.Run("unknown category rejected", func() {
		_, err := s.service.CreateRequest(ctx, s.citizen, CreateRequestRequest{
			Address: "a", Category: "nuclear", QuantityKg: 1, PreferredDate: "2026-09-01",
		})
		s.ErrorIs(err, common.ErrValidation)
	})

	s.Run("only citizens create requests", func() {
		_, err := s.service.CreateRequest(ctx, s.employee, CreateRequestRequest{
			Address: "a", Category: model.CategoryMixed, QuantityKg: 1, PreferredDate: "2026-09-01",
		})
		s.ErrorIs(err, common.ErrForbidden)
	})
}

func (s *RequestLifecycleSuite) TestAssign() {
	ctx := context.Background()
	req := s.createRequest()

	s.Run("assign from requested records the employee", func() {
		s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))
		got, err := s.store.FindRequestByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusAssigned, got.Status)
		s.Require().NotNil(got.AssignedEmployeeID)
		s.Equal("employee-1", *got.AssignedEmployeeID)
	})

	s.Run("assign is rejected from any other status", func() {
		err := s.service.Assign(ctx, s.ministry, req.ID, "employee-2")
		s.ErrorIs(err, common.ErrInvalidTransition)
	})

	s.Run("assignee must be an employee", func() {
		other := s.createRequest()
		err := s.service.Assign(ctx, s.ministry, other.ID, "citizen-1")
		s.ErrorIs(err, common.ErrValidation)
	})

	s.Run("unknown request reports not found", func() {
		err := s.service.Assign(ctx, s.ministry, "missing", "employee-1")
		s.ErrorIs(err, common.ErrNotFound)
	})

	s.Run("only ministry assigns", func() {
		other := s.createRequest()
		err := s.service.Assign(ctx, s.employee, other.ID, "employee-1")
		s.ErrorIs(err, common.ErrForbidden)
	})
}

func (s *RequestLifecycleSuite) TestForwardChain() {
	ctx := context.Background()
	req := s.createRequest()
	s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))

	s.Run("only the assigned employee advances", func() {
		other := model.Identity{UserID: "employee-2", Role: model.RoleEmployee}
		s.ErrorIs(s.service.MarkCollected(ctx, other, req.ID), common.ErrForbidden)
	})

	s.Run("segregation before collection is rejected", func() {
		_, err := s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{OrganicKg: 5})
		s.ErrorIs(err, common.ErrInvalidTransition)
	})

	s.Run("collected then segregated then recycled", func() {
		s.Require().NoError(s.service.MarkCollected(ctx, s.employee, req.ID))

		rec, err := s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{
			OrganicKg: 5.0, RecyclableKg: 0, HazardousKg: 0, Notes: "clean load",
		})
		s.Require().NoError(err)
		s.Equal(req.ID, rec.RequestID)

		got, err := s.store.FindRequestByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusSegregated, got.Status)

		batch, err := s.service.LogRecyclingBatch(ctx, s.employee, req.ID, RecyclingBatchRequest{
			Material: "compost", OutputProduct: "soil conditioner", OutputWeightKg: 4.2,
		})
		s.Require().NoError(err)
		s.Equal("employee-1", batch.ProcessedBy)

		got, err = s.store.FindRequestByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusRecycled, got.Status)

		batches, err := s.store.ListBatches(ctx, req.ID)
		s.Require().NoError(err)
		s.Len(batches, 1)
	})

	s.Run("re-recording segregation replaces the single record", func() {
		_, err := s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{OrganicKg: 4})
		// Request is recycled by now; segregation is no longer accepted.
		s.ErrorIs(err, common.ErrInvalidTransition)
	})

	s.Run("recycled is terminal for collection", func() {
		s.ErrorIs(s.service.MarkCollected(ctx, s.employee, req.ID), common.ErrInvalidTransition)
	})

	s.Run("additional batches are accepted on a recycled request", func() {
		_, err := s.service.LogRecyclingBatch(ctx, s.employee, req.ID, RecyclingBatchRequest{
			Material: "compost", OutputProduct: "mulch", OutputWeightKg: 0.5,
		})
		s.NoError(err)
		batches, err := s.store.ListBatches(ctx, req.ID)
		s.Require().NoError(err)
		s.Len(batches, 2)
	})
}

func (s *RequestLifecycleSuite) TestSegregationReplacement() {
	ctx := context.Background()
	req := s.createRequest()
	s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))
	s.Require().NoError(s.service.MarkCollected(ctx, s.employee, req.ID))

	_, err := s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{OrganicKg: 3})
	s.Require().NoError(err)
	_, err = s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{OrganicKg: 4, Notes: "re-weighed"})
	s.Require().NoError(err)

	rec, err := s.store.GetSegregation(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(4.0, rec.OrganicKg)
	s.Equal("re-weighed", rec.Notes)
}

func (s *RequestLifecycleSuite) TestAssignmentInvariant() {
	ctx := context.Background()
	req := s.createRequest()

	// Employee is non-nil iff the status has advanced past requested.
	got, err := s.store.FindRequestByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Nil(got.AssignedEmployeeID)

	s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))
	advance := []func() error{
		func() error { return s.service.MarkCollected(ctx, s.employee, req.ID) },
		func() error {
			_, err := s.service.RecordSegregation(ctx, s.employee, req.ID, SegregationRequest{OrganicKg: 1})
			return err
		},
		func() error {
			_, err := s.service.LogRecyclingBatch(ctx, s.employee, req.ID, RecyclingBatchRequest{
				Material: "compost", OutputProduct: "soil", OutputWeightKg: 1,
			})
			return err
		},
	}
	for _, step := range advance {
		s.Require().NoError(step())
		got, err = s.store.FindRequestByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.AssignedEmployeeID)
	}
}

func (s *RequestLifecycleSuite) TestCancel() {
	ctx := context.Background()

	s.Run("owner cancels a requested pickup", func() {
		req := s.createRequest()
		s.Require().NoError(s.service.Cancel(ctx, s.citizen, req.ID))
		got, err := s.store.FindRequestByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusCancelled, got.Status)
	})

	s.Run("ministry cancels mid-flight", func() {
		req := s.createRequest()
		s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))
		s.Require().NoError(s.service.Cancel(ctx, s.ministry, req.ID))
	})

	s.Run("cancelled is terminal", func() {
		req := s.createRequest()
		s.Require().NoError(s.service.Cancel(ctx, s.citizen, req.ID))
		s.ErrorIs(s.service.Cancel(ctx, s.citizen, req.ID), common.ErrInvalidTransition)
	})

	s.Run("employees may not cancel", func() {
		req := s.createRequest()
		s.ErrorIs(s.service.Cancel(ctx, s.employee, req.ID), common.ErrForbidden)
	})
}

func (s *RequestLifecycleSuite) TestQueueIsOldestFirst() {
	ctx := context.Background()
	first := s.createRequest()
	second := s.createRequest()
	third := s.createRequest()
	s.Require().NoError(s.service.Assign(ctx, s.ministry, second.ID, "employee-1"))

	queue, err := s.service.ListQueue(ctx, s.ministry)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(first.ID, queue[0].ID)
	s.Equal(third.ID, queue[1].ID)
}

func (s *RequestLifecycleSuite) TestListAssignedFiltersActive() {
	ctx := context.Background()
	active := s.createRequest()
	finished := s.createRequest()
	for _, req := range []*model.WasteRequest{active, finished} {
		s.Require().NoError(s.service.Assign(ctx, s.ministry, req.ID, "employee-1"))
	}
	s.Require().NoError(s.service.MarkCollected(ctx, s.employee, finished.ID))
	_, err := s.service.RecordSegregation(ctx, s.employee, finished.ID, SegregationRequest{OrganicKg: 1})
	s.Require().NoError(err)
	_, err = s.service.LogRecyclingBatch(ctx, s.employee, finished.ID, RecyclingBatchRequest{
		Material: "compost", OutputProduct: "soil", OutputWeightKg: 1,
	})
	s.Require().NoError(err)

	assigned, err := s.service.ListAssigned(ctx, s.employee)
	s.Require().NoError(err)
	s.Require().Len(assigned, 1)
	s.Equal(active.ID, assigned[0].ID)
}

func TestGetRequestVisibility(t *testing.T) {
	store := repository.NewMemory()
	svc := NewRequestService(store, store, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []model.User{
		{ID: "c1", Username: "c1@x", FullName: "c1", Role: model.RoleCitizen, PasswordHash: "x"},
		{ID: "c2", Username: "c2@x", FullName: "c2", Role: model.RoleCitizen, PasswordHash: "x"},
	} {
		u := u
		require.NoError(t, store.Create(ctx, &u))
	}

	citizen := model.Identity{UserID: "c1", Role: model.RoleCitizen}
	req, err := svc.CreateRequest(ctx, citizen, CreateRequestRequest{
		Address: "a", Category: model.CategoryMixed, QuantityKg: 2, PreferredDate: "2026-09-01",
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, citizen, req.ID)
	require.NoError(t, err)

	other := model.Identity{UserID: "c2", Role: model.RoleCitizen}
	_, err = svc.Get(ctx, other, req.ID)
	require.ErrorIs(t, err, common.ErrForbidden)
}
