package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/hanapark/hanapark/internal/booking"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/config"
	"github.com/hanapark/hanapark/internal/locking"
	"github.com/hanapark/hanapark/internal/logger"
	"github.com/hanapark/hanapark/internal/migration"
	"github.com/hanapark/hanapark/internal/notification"
	"github.com/hanapark/hanapark/internal/payment"
	"github.com/hanapark/hanapark/internal/scheduler"
	"github.com/hanapark/hanapark/internal/server"
	"github.com/hanapark/hanapark/internal/spot"
	"github.com/hanapark/hanapark/pkg/db"
	"github.com/hanapark/hanapark/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		locking.Module,
		telemetry.Module,
		migration.Module,

		// Domains
		spot.Module,
		booking.Module,
		payment.Module,
		notification.Module,
		scheduler.Module,

		// Delivery
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
