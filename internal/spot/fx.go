package spot

import (
	"github.com/hanapark/hanapark/internal/spot/repository"
	"github.com/hanapark/hanapark/internal/spot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("spot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
