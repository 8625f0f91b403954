package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leasehub/lease-engine/internal/domain"
)

func TestApplicationRepository_CreateAndGet(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	app := createApplication(t, store, property.ID, "ravi@example.com", domain.ApplicationStatusPending)

	got, err := store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicantEmail, got.ApplicantEmail)
	assert.Equal(t, domain.ApplicationStatusPending, got.Status)
	assert.Equal(t, int64(150000), got.MonthlyIncome)
}

func TestApplicationRepository_Update(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	tenant := createTenant(t, store, "TEN00001")
	app := createApplication(t, store, property.ID, "ravi@example.com", domain.ApplicationStatusPending)

	now := time.Now()
	expiresAt := now.Add(48 * time.Hour)
	app.Status = domain.ApplicationStatusApproved
	app.TenantID = &tenant.ID
	app.AdminComments = "approved"
	app.ApprovedAt = &now
	app.ExpiresAt = &expiresAt

	require.NoError(t, store.Applications.Update(ctx, app))

	got, err := store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, got.Status)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenant.ID, *got.TenantID)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expiresAt, *got.ExpiresAt, time.Second)
}

func TestApplicationRepository_FindForDeposit(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	tenant := createTenant(t, store, "TEN00001")

	app := createApplication(t, store, property.ID, tenant.Email, domain.ApplicationStatusApproved)
	app.TenantID = &tenant.ID
	require.NoError(t, store.Applications.Update(ctx, app))

	got, err := store.Applications.FindForDeposit(ctx, tenant.ID, property.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)

	// nothing for an unrelated tenant
	other := createTenant(t, store, "TEN00002")
	_, err = store.Applications.FindForDeposit(ctx, other.ID, property.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplicationRepository_RejectPendingForProperty(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	winner := createApplication(t, store, property.ID, "winner@example.com", domain.ApplicationStatusPending)
	loser := createApplication(t, store, property.ID, "loser@example.com", domain.ApplicationStatusPending)
	decided := createApplication(t, store, property.ID, "done@example.com", domain.ApplicationStatusRejected)

	touched, err := store.Applications.RejectPendingForProperty(ctx, property.ID, winner.ID,
		"Property has been assigned to another applicant")
	require.NoError(t, err)
	assert.Equal(t, int64(1), touched)

	got, err := store.Applications.GetByID(ctx, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusRejected, got.Status)
	assert.Equal(t, "Property has been assigned to another applicant", got.AdminComments)

	// the winner and the already-decided application are untouched
	got, err = store.Applications.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, got.Status)

	got, err = store.Applications.GetByID(ctx, decided.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AdminComments)
}

func TestApplicationRepository_CancelPendingByEmail(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	propertyA := createProperty(t, store)
	propertyB := createProperty(t, store)

	approved := createApplication(t, store, propertyA.ID, "ravi@example.com", domain.ApplicationStatusPending)
	elsewhere := createApplication(t, store, propertyB.ID, "ravi@example.com", domain.ApplicationStatusPending)

	touched, err := store.Applications.CancelPendingByEmail(ctx, "ravi@example.com", approved.ID,
		"Automatically cancelled")
	require.NoError(t, err)
	assert.Equal(t, int64(1), touched)

	got, err := store.Applications.GetByID(ctx, elsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusCancelled, got.Status)
}

func TestApplicationRepository_ListExpiryCandidates(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	now := time.Now()

	property := createProperty(t, store)

	expired := createApplication(t, store, property.ID, "late@example.com", domain.ApplicationStatusApproved)
	past := now.Add(-time.Hour)
	expired.ExpiresAt = &past
	require.NoError(t, store.Applications.Update(ctx, expired))

	alive := createApplication(t, store, property.ID, "ok@example.com", domain.ApplicationStatusApproved)
	future := now.Add(24 * time.Hour)
	alive.ExpiresAt = &future
	require.NoError(t, store.Applications.Update(ctx, alive))

	candidates, err := store.Applications.ListExpiryCandidates(ctx, now)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, expired.ID, candidates[0].ID)
}

func TestPropertyRepository_AssignAndRelease(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	tenant := createTenant(t, store, "TEN00001")

	require.NoError(t, store.Properties.Assign(ctx, property.ID, domain.PropertyStatusReserved, &tenant.ID))

	got, err := store.Properties.GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusReserved, got.Status)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenant.ID, *got.TenantID)

	// release by a different tenant frees the status but keeps the linkage
	require.NoError(t, store.Properties.Release(ctx, property.ID, uuid.New()))
	got, err = store.Properties.GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusAvailable, got.Status)
	assert.NotNil(t, got.TenantID)

	// release by the linked tenant clears it
	require.NoError(t, store.Properties.Release(ctx, property.ID, tenant.ID))
	got, err = store.Properties.GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TenantID)
}

func TestTenantRepository_LinkDetachCount(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	property := createProperty(t, store)
	tenant := createTenant(t, store, "TEN00001")
	app := createApplication(t, store, property.ID, tenant.Email, domain.ApplicationStatusApproved)

	require.NoError(t, store.Tenants.Link(ctx, tenant.ID, &property.ID, &app.ID))

	got, err := store.Tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PropertyID)
	assert.Equal(t, property.ID, *got.PropertyID)
	require.NotNil(t, got.ApplicationID)
	assert.Equal(t, app.ID, *got.ApplicationID)

	// detach with the wrong property is a no-op
	require.NoError(t, store.Tenants.Detach(ctx, tenant.ID, uuid.New()))
	got, err = store.Tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.PropertyID)

	require.NoError(t, store.Tenants.Detach(ctx, tenant.ID, property.ID))
	got, err = store.Tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PropertyID)

	count, err := store.Tenants.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	byEmail, err := store.Tenants.GetByEmail(ctx, tenant.Email)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, byEmail.ID)
}
