package service

import (
	"context"
	"testing"
	"wastewise/internal/common"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsOnEmptyStore(t *testing.T) {
	store := repository.NewMemory()
	svc := NewReportService(store)
	ctx := context.Background()
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	counts, err := svc.RequestsByStatus(ctx, ministry)
	require.NoError(t, err)
	assert.Empty(t, counts)

	totals, err := svc.SegregationTotals(ctx, ministry)
	require.NoError(t, err)
	assert.Zero(t, totals.OrganicKg)
	assert.Zero(t, totals.RecyclableKg)
	assert.Zero(t, totals.HazardousKg)

	outputs, err := svc.RecyclingOutputByMaterial(ctx, ministry)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestReportsAreMinistryOnly(t *testing.T) {
	store := repository.NewMemory()
	svc := NewReportService(store)
	ctx := context.Background()

	for _, role := range []model.Role{model.RoleCitizen, model.RoleEmployee} {
		actor := model.Identity{UserID: "u", Role: role}
		_, err := svc.RequestsByStatus(ctx, actor)
		assert.ErrorIs(t, err, common.ErrForbidden)
		_, err = svc.SegregationTotals(ctx, actor)
		assert.ErrorIs(t, err, common.ErrForbidden)
		_, err = svc.RecyclingOutputByMaterial(ctx, actor)
		assert.ErrorIs(t, err, common.ErrForbidden)
	}
}

func TestReportsAggregateTheLifecycle(t *testing.T) {
	store := repository.NewMemory()
	reports := NewReportService(store)
	requests := NewRequestService(store, store, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []model.User{
		{ID: "c1", Username: "c1@x", FullName: "c1", Role: model.RoleCitizen, PasswordHash: "x"},
		{ID: "e1", Username: "e1@x", FullName: "e1", Role: model.RoleEmployee, PasswordHash: "x"},
	} {
		u := u
		require.NoError(t, store.Create(ctx, &u))
	}
	citizen := model.Identity{UserID: "c1", Role: model.RoleCitizen}
	employee := model.Identity{UserID: "e1", Role: model.RoleEmployee}
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	create := func() *model.WasteRequest {
		req, err := requests.CreateRequest(ctx, citizen, CreateRequestRequest{
			Address: "a", Category: model.CategoryOrganic, QuantityKg: 5, PreferredDate: "2026-09-01",
		})
		require.NoError(t, err)
		return req
	}

	// One request runs the full chain, one stays assigned, one stays open.
	done := create()
	parked := create()
	create()

	for _, req := range []*model.WasteRequest{done, parked} {
		require.NoError(t, requests.Assign(ctx, ministry, req.ID, "e1"))
	}
	require.NoError(t, requests.MarkCollected(ctx, employee, done.ID))
	_, err := requests.RecordSegregation(ctx, employee, done.ID, SegregationRequest{
		OrganicKg: 3.5, RecyclableKg: 1.0, HazardousKg: 0.5,
	})
	require.NoError(t, err)
	for _, batch := range []RecyclingBatchRequest{
		{Material: "compost", OutputProduct: "soil conditioner", OutputWeightKg: 3.0},
		{Material: "plastic", OutputProduct: "pellets", OutputWeightKg: 0.8},
		{Material: "compost", OutputProduct: "mulch", OutputWeightKg: 0.2},
	} {
		_, err := requests.LogRecyclingBatch(ctx, employee, done.ID, batch)
		require.NoError(t, err)
	}

	counts, err := reports.RequestsByStatus(ctx, ministry)
	require.NoError(t, err)
	byStatus := map[model.RequestStatus]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	assert.Equal(t, 1, byStatus[model.StatusRequested])
	assert.Equal(t, 1, byStatus[model.StatusAssigned])
	assert.Equal(t, 1, byStatus[model.StatusRecycled])

	totals, err := reports.SegregationTotals(ctx, ministry)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, totals.OrganicKg, 1e-9)
	assert.InDelta(t, 1.0, totals.RecyclableKg, 1e-9)
	assert.InDelta(t, 0.5, totals.HazardousKg, 1e-9)

	outputs, err := reports.RecyclingOutputByMaterial(ctx, ministry)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	byMaterial := map[string]float64{}
	for _, o := range outputs {
		byMaterial[o.Material] = o.OutputKg
	}
	assert.InDelta(t, 3.2, byMaterial["compost"], 1e-9)
	assert.InDelta(t, 0.8, byMaterial["plastic"], 1e-9)
}
