package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger. Development mode uses the console encoder.
func New(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
