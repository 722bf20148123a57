package services

import (
	"context"

	"github.com/Samarth07-ctrl/squadvault/internal/algod"
	"github.com/stretchr/testify/mock"
)

type MockCompiler struct {
	mock.Mock
}

func (m *MockCompiler) Compile(ctx context.Context, source string) (*algod.CompileResult, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*algod.CompileResult), args.Error(1)
}
