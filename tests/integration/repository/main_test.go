package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/repository"
)

// Integration tests run against a disposable Postgres database named by
// TEST_DATABASE_URL. Without it the suite is skipped.
var testDB *sqlx.DB

func TestMain(m *testing.M) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping repository integration tests")
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

	up, err := os.ReadFile("../../../migrations/0001_init.up.sql")
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := db.Exec(string(up)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

func setupTest(t *testing.T) *repository.Store {
	t.Helper()
	cleanupTestData(testDB)
	return repository.NewStore(testDB)
}

func cleanupTestData(db *sqlx.DB) {
	db.Exec("DELETE FROM audit_logs")
	db.Exec("DELETE FROM ledger_entries")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM invoices")
	db.Exec("DELETE FROM applications")
	db.Exec("UPDATE properties SET tenant_id = NULL")
	db.Exec("DELETE FROM tenants")
	db.Exec("DELETE FROM properties")
}

func createProperty(t *testing.T, store *repository.Store) *domain.Property {
	t.Helper()
	property := &domain.Property{
		ID:             uuid.New(),
		Name:           "Unit 4B",
		Address:        "12 Hill Road",
		PropertyType:   "apartment",
		Rent:           decimal.NewFromInt(50000),
		MaintenanceFee: decimal.NewFromInt(2000),
		Deposit:        decimal.NewFromInt(100000),
		BookingDeposit: decimal.NewFromInt(15000),
		Status:         domain.PropertyStatusAvailable,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, store.Properties.Create(context.Background(), property))
	return property
}

func createTenant(t *testing.T, store *repository.Store, code string) *domain.Tenant {
	t.Helper()
	tenant := &domain.Tenant{
		ID:         uuid.New(),
		TenantCode: code,
		FirstName:  "Ravi",
		LastName:   "Kumar",
		Email:      code + "@example.com",
		Status:     domain.TenantStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, store.Tenants.Create(context.Background(), tenant))
	return tenant
}

func createApplication(t *testing.T, store *repository.Store, propertyID uuid.UUID, email, status string) *domain.Application {
	t.Helper()
	app := &domain.Application{
		ID:              uuid.New(),
		ApplicantName:   "Ravi Kumar",
		ApplicantEmail:  email,
		Phone:           "+91-9800000000",
		MonthlyIncome:   150000,
		Occupation:      "engineer",
		Occupants:       2,
		LeaseDuration:   12,
		PreferredMoveIn: time.Now().AddDate(0, 1, 0),
		PropertyID:      propertyID,
		Status:          status,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, store.Applications.Create(context.Background(), app))
	return app
}

func createInvoice(t *testing.T, store *repository.Store, tenantID, propertyID uuid.UUID, invoiceType, status, month string, total decimal.Decimal, dueDate time.Time) *domain.Invoice {
	t.Helper()
	balance := total
	if status == domain.InvoiceStatusPaid {
		balance = decimal.Zero
	}
	invoice := &domain.Invoice{
		ID:                uuid.New(),
		Type:              invoiceType,
		TenantID:          tenantID,
		PropertyID:        propertyID,
		Month:             month,
		RentAmount:        total,
		TotalAmount:       total,
		DueDate:           dueDate,
		Status:            status,
		PaidAmount:        decimal.Zero,
		Balance:           balance,
		LateFeesAccrued:   decimal.Zero,
		LastReminderStage: domain.ReminderStageNone,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	require.NoError(t, store.Invoices.Create(context.Background(), invoice))
	return invoice
}
