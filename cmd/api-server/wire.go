//go:build wireinject
// +build wireinject

package main

import (
	"Rewards/config"
	"Rewards/dao"
	"Rewards/dao/cache"
	"Rewards/handler"
	"Rewards/pkg/client"
	"Rewards/pkg/database"
	"Rewards/pkg/qrcode"
	"Rewards/pkg/server"
	"Rewards/service"

	"github.com/google/wire"
)

func InitServer(cfg *config.Config) *server.AppProvider {
	wire.Build(
		client.NewRedisClient,
		database.NewDB,
		config.ProvideCouponConfig,
		qrcode.NewLinkEncoder,
		wire.Bind(new(qrcode.Encoder), new(*qrcode.LinkEncoder)),
		server.NewGinEngine,
		cache.ProviderSet,
		wire.Struct(new(handler.Coupon), "*"),
		wire.Struct(new(handler.Scan), "*"),
		wire.Struct(new(handler.Credit), "*"),

		wire.Struct(new(server.AppProvider), "*"),
		wire.Struct(new(server.Handlers), "*"),

		dao.ProviderSet,
		service.ProviderSet,
	)
	return nil
}
