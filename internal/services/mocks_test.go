package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bikedash/internal/dataprocessing"
)

// MockPipelineRunner is a mock for the PipelineRunner interface
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context) (*dataprocessing.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*dataprocessing.Result)
	return res, args.Error(1)
}
