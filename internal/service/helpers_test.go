package service

import (
	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
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
}

type fixture struct {
	repos    *mocks.Repos
	tx       *mocks.TxRunner
	notifier *mocks.MockNotifier
	locker   *mocks.Locker
	leases   *LeaseService
	billing  *BillingService
}

func newFixture() *fixture {
	repos := mocks.NewRepos()
	tx := &mocks.TxRunner{Repos: repos}
	notifier := &mocks.MockNotifier{}
	locker := mocks.NewLocker()
	cfg := testConfig()

	leases := &LeaseService{
		tx:       tx,
		repos:    repos.Bundle(),
		notifier: notifier,
		config:   cfg,
	}

	billing := &BillingService{
		tx:       tx,
		repos:    repos.Bundle(),
		leases:   leases,
		locks:    locker,
		notifier: notifier,
		config:   cfg,
	}

	return &fixture{
		repos:    repos,
		tx:       tx,
		notifier: notifier,
		locker:   locker,
		leases:   leases,
		billing:  billing,
	}
}
