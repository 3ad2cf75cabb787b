package group

import "go.uber.org/fx"

var Module = fx.Provide(NewBuilder)
