package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
	"github.com/leasehub/lease-engine/internal/service"
)

func main() {
	log.Println("Starting lease billing scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := repository.NewStore(db)
	locker := service.NewRedisInvoiceLocker(redisClient)

	var notifier notify.Notifier = notify.NewAsynqNotifier(redisClient)
	if cfg.IsDevelopment() {
		notifier = notify.LogNotifier{}
	}

	leaseService := service.NewLeaseService(store, notifier, cfg)
	billingService := service.NewBillingService(store, leaseService, locker, notifier, cfg)

	c := cron.New(cron.WithSeconds())
	setupCronJobs(c, leaseService, billingService)

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, leases *service.LeaseService, billing *service.BillingService) {
	schedule := func(spec, name string, run func(ctx context.Context, now time.Time) (int, error)) {
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			n, err := run(ctx, time.Now())
			if err != nil {
				log.Printf("%s failed: %v", name, err)
				return
			}
			log.Printf("%s completed, %d affected", name, n)
		})
		if err != nil {
			log.Fatalf("Error scheduling %s: %v", name, err)
		}
	}

	// Deposit deadline sweeps run through the day; billing sweeps are daily.
	schedule("0 */30 * * * *", "application expiry sweep", leases.ExpireApplications)
	schedule("0 15,45 * * * *", "deposit expiry warnings", leases.SendExpiryWarnings)
	schedule("0 0 1 * * *", "monthly invoice generation", billing.GenerateMonthlyInvoices)
	schedule("0 30 1 * * *", "late fee accrual", billing.AccrueLateFees)
	schedule("0 0 9 * * *", "rent reminders", billing.SendRentReminders)
	schedule("0 0 3 * * 0", "lease state repair", leases.RepairLeaseState)

	log.Println("Cron jobs scheduled successfully")
}
