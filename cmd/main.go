package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/config"
	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/server"
	"github.com/havrebakery/bakery-api/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.Init()

	if err := database.ConnectAndMigrate(config.DatabaseURL); err != nil {
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	logrus.Info("migration is successful")

	if err := seedAdminUser(); err != nil {
		logrus.Panicf("failed to seed admin user, error: %v", err)
	}

	config.InitRedis()

	scheduler := cron.New()
	if err := scheduler.AddFunc("@midnight", runPendingOrderReminder); err != nil {
		logrus.Panicf("failed to schedule reminder job, error: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	svr := server.SetupRoutes()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("server listening on port %s", config.Port)
		if err := svr.Run(config.Port); err != nil && err != http.ErrServerClosed {
			logrus.Panicf("server failed, error: %v", err)
		}
	}()

	<-done
	logrus.Info("shutting down...")

	if err := svr.Shutdown(shutdownTimeout); err != nil {
		logrus.WithError(err).Error("failed to shut down server cleanly")
	}
	if err := database.Shutdown(); err != nil {
		logrus.WithError(err).Error("failed to close database connection")
	}
}

func seedAdminUser() error {
	hashed, err := utils.HashPassword(config.AdminPassword)
	if err != nil {
		return err
	}
	return dbhelper.EnsureAdminUser(config.AdminUsername, config.AdminEmail, hashed)
}

// runPendingOrderReminder logs orders that have sat in pending for over a
// day so staff can chase them up.
func runPendingOrderReminder() {
	cutoff := time.Now().Add(-24 * time.Hour)
	orders, err := dbhelper.ListStalePendingOrders(cutoff)
	if err != nil {
		logrus.WithError(err).Error("pending order reminder failed")
		return
	}
	for _, order := range orders {
		logrus.Warnf("order %s from %s has been pending since %s",
			order.OrderNumber, order.Customer.Name, order.CreatedAt.Format(time.RFC3339))
	}
	if len(orders) == 0 {
		logrus.Info("no stale pending orders")
	}
}
