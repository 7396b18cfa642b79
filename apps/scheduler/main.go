package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/audit"
	"github.com/kirapay/kirapay/internal/clock"
	"github.com/kirapay/kirapay/internal/config"
	"github.com/kirapay/kirapay/internal/lease"
	"github.com/kirapay/kirapay/internal/logger"
	"github.com/kirapay/kirapay/internal/migration"
	"github.com/kirapay/kirapay/internal/notification"
	"github.com/kirapay/kirapay/internal/payment"
	"github.com/kirapay/kirapay/internal/property"
	"github.com/kirapay/kirapay/internal/scheduler"
	"github.com/kirapay/kirapay/pkg/db"
	"go.uber.org/fx"
)

// Scheduler-only entrypoint for deployments that split the API from the
// background jobs. Set SCHEDULER_JOBS to pin this instance to a subset.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services the jobs call into.
		property.Module,
		audit.Module,
		notification.Module,
		lease.Module,
		payment.Module,

		// No HTTP server here.
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
