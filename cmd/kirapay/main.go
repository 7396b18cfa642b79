package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/clock"
	"github.com/kirapay/kirapay/internal/config"
	"github.com/kirapay/kirapay/internal/logger"
	"github.com/kirapay/kirapay/internal/migration"
	"github.com/kirapay/kirapay/internal/scheduler"
	"github.com/kirapay/kirapay/internal/server"
	"github.com/kirapay/kirapay/pkg/db"
	"go.uber.org/fx"
)

// Monolith entrypoint: HTTP API plus the in-process scheduler.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		scheduler.Module,
		server.Module,
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
