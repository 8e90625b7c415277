package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/futautah-hue/balo-website/internal/clock"
	"github.com/futautah-hue/balo-website/internal/observability"
	"github.com/futautah-hue/balo-website/internal/server"
	"github.com/futautah-hue/balo-website/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// HTTP surface plus the domain modules it serves
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
