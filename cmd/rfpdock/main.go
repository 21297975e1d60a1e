package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	"github.com/rfpdock/rfpdock/internal/config"
	"github.com/rfpdock/rfpdock/internal/migration"
	"github.com/rfpdock/rfpdock/internal/observability"
	"github.com/rfpdock/rfpdock/internal/server"
	"github.com/rfpdock/rfpdock/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
