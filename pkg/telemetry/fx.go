package telemetry

import "go.uber.org/fx"

// Module wires telemetry components via Fx.
var Module = fx.Options(
	fx.Provide(NewMetrics),
)
