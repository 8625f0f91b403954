package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/handler"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
	"github.com/leasehub/lease-engine/internal/service"
)

// End-to-end lifecycle tests against a disposable Postgres database named
// by TEST_DATABASE_URL. Without it the suite is skipped.
var testDB *sqlx.DB

func TestMain(m *testing.M) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping e2e tests")
		os.Exit(0)
	}

	var err error
	testDB, err = sqlx.Connect("postgres", url)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err := resetSchema(testDB); err != nil {
		panic(fmt.Sprintf("Failed to initialize database schema: %v", err))
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func resetSchema(db *sqlx.DB) error {
	drop := `DROP TABLE IF EXISTS audit_logs, ledger_entries, payments, invoices, applications, tenants, properties CASCADE`
	if _, err := db.Exec(drop); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	up, err := os.ReadFile("../../migrations/0001_init.up.sql")
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := db.Exec(string(up)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// memLocker is a process-local InvoiceLocker so the e2e suite does not
// need a Redis instance.
type memLocker struct {
	held map[uuid.UUID]bool
}

func (l *memLocker) Acquire(ctx context.Context, invoiceID uuid.UUID, ttl time.Duration) (bool, error) {
	if l.held == nil {
		l.held = make(map[uuid.UUID]bool)
	}
	if l.held[invoiceID] {
		return false, nil
	}
	l.held[invoiceID] = true
	return true, nil
}

func (l *memLocker) Release(ctx context.Context, invoiceID uuid.UUID) error {
	delete(l.held, invoiceID)
	return nil
}

func newTestRouter(t *testing.T) (*mux.Router, *repository.Store) {
	t.Helper()

	cfg := &config.Config{
		Business: config.BusinessConfig{
			LateFeePerDay:             "100",
			GracePeriodDays:           3,
			DepositWindowHours:        48,
			RentDueDay:                5,
			MinBookingDepositFraction: "0.20",
			ExpiryWarningWindowHours:  24,
			ReconcileLockTTL:          "30s",
		},
	}

	store := repository.NewStore(testDB)
	leases := service.NewLeaseService(store, notify.LogNotifier{}, cfg)
	billing := service.NewBillingService(store, leases, &memLocker{}, notify.LogNotifier{}, cfg)

	billingHandler := handler.NewBillingHandler(billing)
	applicationHandler := handler.NewApplicationHandler(leases)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/applications", applicationHandler.Submit).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/decision", applicationHandler.Decide).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/cancel", applicationHandler.Cancel).Methods("POST")
	api.HandleFunc("/payments/confirm", billingHandler.ConfirmPayment).Methods("POST")
	api.HandleFunc("/tenants/{tenantId}/ledger", billingHandler.TenantLedger).Methods("GET")
	router.HandleFunc("/webhooks/payments", billingHandler.PaymentWebhook).Methods("POST")

	return router, store
}

func postJSON(t *testing.T, router *mux.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var wrapper struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	require.NoError(t, json.Unmarshal(wrapper.Data, out))
}

func cleanup() {
	testDB.Exec("DELETE FROM audit_logs")
	testDB.Exec("DELETE FROM ledger_entries")
	testDB.Exec("DELETE FROM payments")
	testDB.Exec("DELETE FROM invoices")
	testDB.Exec("DELETE FROM applications")
	testDB.Exec("UPDATE properties SET tenant_id = NULL")
	testDB.Exec("DELETE FROM tenants")
	testDB.Exec("DELETE FROM properties")
}

func TestLeaseLifecycle(t *testing.T) {
	cleanup()
	router, store := newTestRouter(t)
	ctx := context.Background()

	property := &domain.Property{
		ID:             uuid.New(),
		Name:           "Unit 4B",
		Address:        "12 Hill Road",
		PropertyType:   "apartment",
		Rent:           decimal.NewFromInt(50000),
		MaintenanceFee: decimal.NewFromInt(2000),
		BookingDeposit: decimal.NewFromInt(15000),
		Status:         domain.PropertyStatusAvailable,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, store.Properties.Create(ctx, property))

	// 1. Applicant submits.
	w := postJSON(t, router, "/api/v1/applications", domain.SubmitApplicationRequest{
		ApplicantName:   "Ravi Kumar",
		ApplicantEmail:  "ravi@example.com",
		Phone:           "+91-9800000000",
		MonthlyIncome:   150000,
		Occupation:      "engineer",
		Occupants:       2,
		LeaseDuration:   12,
		PreferredMoveIn: time.Now().AddDate(0, 1, 0),
		PropertyID:      property.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app domain.Application
	decodeData(t, w, &app)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)

	// 2. Admin approves: tenant account and deposit invoice appear.
	w = postJSON(t, router, fmt.Sprintf("/api/v1/applications/%s/decision", app.ID),
		domain.ApplicationDecisionRequest{Decision: domain.DecisionApprove})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved domain.Application
	decodeData(t, w, &approved)
	assert.Equal(t, domain.ApplicationStatusApproved, approved.Status)
	require.NotNil(t, approved.TenantID)
	require.NotNil(t, approved.ExpiresAt)

	tenantID := *approved.TenantID
	tenant, err := store.Tenants.GetByID(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "TEN00001", tenant.TenantCode)

	var deposit domain.Invoice
	require.NoError(t, testDB.Get(&deposit,
		`SELECT id, type, tenant_id, property_id, total_amount, status FROM invoices WHERE type = 'booking_deposit' AND tenant_id = $1`,
		tenantID))
	assert.True(t, deposit.TotalAmount.Equal(decimal.NewFromInt(15000)))

	// 3. Gateway webhook reports the deposit paid.
	event := domain.PaymentEvent{
		InvoiceID:      deposit.ID,
		TenantID:       tenantID,
		Purpose:        domain.PaymentPurposeBookingDeposit,
		AmountPaid:     deposit.TotalAmount,
		TransactionRef: "txn-dep-1",
	}
	w = postJSON(t, router, "/webhooks/payments", event)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	reserved, err := store.Applications.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusReserved, reserved.Status)

	gotProperty, err := store.Properties.GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusReserved, gotProperty.Status)
	require.NotNil(t, gotProperty.TenantID)
	assert.Equal(t, tenantID, *gotProperty.TenantID)

	firstRent, err := store.Invoices.FindOpenRent(ctx, tenantID, property.ID)
	require.NoError(t, err)
	assert.True(t, firstRent.TotalAmount.Equal(decimal.NewFromInt(52000)))
	assert.Equal(t, 5, firstRent.DueDate.Day())

	// 4. Success page posts the same event: no second payment appears.
	w = postJSON(t, router, "/api/v1/payments/confirm", event)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var paymentCount int
	require.NoError(t, testDB.Get(&paymentCount,
		`SELECT COUNT(*) FROM payments WHERE invoice_id = $1`, deposit.ID))
	assert.Equal(t, 1, paymentCount, "duplicate delivery must not create a second payment")

	// 5. First rent paid through the success page.
	w = postJSON(t, router, "/api/v1/payments/confirm", domain.PaymentEvent{
		InvoiceID:      firstRent.ID,
		TenantID:       tenantID,
		Purpose:        domain.PaymentPurposeRent,
		AmountPaid:     firstRent.TotalAmount,
		TransactionRef: "txn-rent-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	paidRent, err := store.Invoices.GetByID(ctx, firstRent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paidRent.Status)
	assert.True(t, paidRent.Balance.IsZero())

	// 6. The ledger carries one credit per payment.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/tenants/%s/ledger", tenantID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.LedgerEntry
	decodeData(t, rec, &entries)
	assert.Len(t, entries, 2)
}

func TestTenantCancellationBlockedAfterDeposit(t *testing.T) {
	cleanup()
	router, store := newTestRouter(t)
	ctx := context.Background()

	property := &domain.Property{
		ID:           uuid.New(),
		Name:         "Unit 7A",
		Address:      "9 Lake View",
		PropertyType: "apartment",
		Rent:         decimal.NewFromInt(30000),
		Status:       domain.PropertyStatusAvailable,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, store.Properties.Create(ctx, property))

	w := postJSON(t, router, "/api/v1/applications", domain.SubmitApplicationRequest{
		ApplicantName:   "Meera Shah",
		ApplicantEmail:  "meera@example.com",
		Phone:           "+91-9811111111",
		MonthlyIncome:   120000,
		Occupation:      "designer",
		Occupants:       1,
		LeaseDuration:   11,
		PreferredMoveIn: time.Now().AddDate(0, 1, 0),
		PropertyID:      property.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var app domain.Application
	decodeData(t, w, &app)

	w = postJSON(t, router, fmt.Sprintf("/api/v1/applications/%s/decision", app.ID),
		domain.ApplicationDecisionRequest{Decision: domain.DecisionApprove})
	require.Equal(t, http.StatusOK, w.Code)
	var approved domain.Application
	decodeData(t, w, &approved)
	tenantID := *approved.TenantID

	var deposit domain.Invoice
	require.NoError(t, testDB.Get(&deposit,
		`SELECT id, total_amount FROM invoices WHERE type = 'booking_deposit' AND tenant_id = $1`, tenantID))

	w = postJSON(t, router, "/webhooks/payments", domain.PaymentEvent{
		InvoiceID:      deposit.ID,
		TenantID:       tenantID,
		Purpose:        domain.PaymentPurposeBookingDeposit,
		AmountPaid:     deposit.TotalAmount,
		TransactionRef: "txn-dep-2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Tenant cancellation is locked now; only an admin can cancel.
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/applications/%s/cancel", app.ID), bytes.NewReader([]byte("{}")))
	req.Header.Set("X-Actor-Type", domain.ActorTypeTenant)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/applications/%s/cancel", app.ID), bytes.NewReader([]byte("{}")))
	req.Header.Set("X-Actor-Type", domain.ActorTypeAdmin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	released, err := store.Properties.GetByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusAvailable, released.Status)
}
