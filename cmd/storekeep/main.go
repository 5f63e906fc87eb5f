package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/config"
	"github.com/smallbiznis/storekeep/internal/migration"
	"github.com/smallbiznis/storekeep/internal/observability"
	"github.com/smallbiznis/storekeep/internal/server"
	"github.com/smallbiznis/storekeep/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Settings, catalog, pricing and the HTTP surface
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
