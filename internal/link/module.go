package link

import "go.uber.org/fx"

var Module = fx.Provide(NewParser)
