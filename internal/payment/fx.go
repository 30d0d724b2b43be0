package payment

import (
	paymentgateway "github.com/hanapark/hanapark/internal/payment/gateway"
	"github.com/hanapark/hanapark/internal/payment/repository"
	"github.com/hanapark/hanapark/internal/payment/service"
	"github.com/hanapark/hanapark/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentgateway.NewPayMongoClient),
	fx.Provide(func(c *paymentgateway.PayMongoClient) paymentgateway.Gateway { return c }),
	fx.Provide(service.NewService),
	fx.Provide(webhook.NewService),
)
