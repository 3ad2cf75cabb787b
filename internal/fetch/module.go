package fetch

import "go.uber.org/fx"

var Module = fx.Provide(NewFetcher)
