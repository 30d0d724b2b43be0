package booking

import (
	"github.com/hanapark/hanapark/internal/booking/repository"
	"github.com/hanapark/hanapark/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
