package app

import (
	"go.uber.org/zap"
)

const EnvProduction = "production"

// NewLogger returns the production logger for APP_ENV=production and the
// development logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == EnvProduction {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
