package employee

import "context"

// ServiceInterface defines the contract for employee authentication
type ServiceInterface interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
}

var _ ServiceInterface = (*Service)(nil)
