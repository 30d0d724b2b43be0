package notification

import (
	"context"

	"github.com/hanapark/hanapark/internal/notification/domain"
	"github.com/hanapark/hanapark/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.dispatcher",
	fx.Provide(service.NewDispatcher),
	fx.Provide(func(d *service.Dispatcher) domain.Dispatcher { return d }),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, d *service.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			d.Stop()
			return nil
		},
	})
}
