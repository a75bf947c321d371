package employee

import (
	"context"
	"errors"
	"testing"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

type mockTokenIssuer struct {
	issueFunc func(employeeID, userType string) (string, error)
}

func (m *mockTokenIssuer) Issue(employeeID, userType string) (string, error) {
	if m.issueFunc != nil {
		return m.issueFunc(employeeID, userType)
	}
	return "token-" + userType, nil
}

// mockRepository implements RepositoryInterface for testing
type mockRepository struct {
	createFunc        func(ctx context.Context, e *Employee) error
	getByUserTypeFunc func(ctx context.Context, userType UserType) (*Employee, error)
	getByIDFunc       func(ctx context.Context, id string) (*Employee, error)
}

func (m *mockRepository) Create(ctx context.Context, e *Employee) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	return errors.New("not implemented")
}

func (m *mockRepository) GetByUserType(ctx context.Context, userType UserType) (*Employee, error) {
	if m.getByUserTypeFunc != nil {
		return m.getByUserTypeFunc(ctx, userType)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

type recordingMetrics struct {
	calls []string
}

func (m *recordingMetrics) RecordEmployeeAuth(ctx context.Context, action, userType string, success bool) {
	outcome := "fail"
	if success {
		outcome = "ok"
	}
	m.calls = append(m.calls, action+":"+userType+":"+outcome)
}

func newTestService(t *testing.T, repo RepositoryInterface) (*Service, *recordingMetrics) {
	t.Helper()
	metrics := &recordingMetrics{}
	return NewService(repo, newTestCipher(t), &mockTokenIssuer{}, nil, metrics, nil), metrics
}

func TestSignup_Success(t *testing.T) {
	repo := NewMemoryRepository()
	svc, metrics := newTestService(t, repo)

	res, err := svc.Signup(context.Background(), SignupRequest{UserType: UserTypeCashier, Password: "till-1234"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.UserType != UserTypeCashier || res.Token != "token-cashier" {
		t.Errorf("Unexpected result %+v", res)
	}

	stored, err := repo.GetByUserType(context.Background(), UserTypeCashier)
	if err != nil {
		t.Fatalf("Expected stored employee, got: %v", err)
	}
	if stored.Password == "till-1234" {
		t.Error("Expected password to be stored encrypted")
	}
	if len(metrics.calls) != 1 || metrics.calls[0] != "signup:cashier:ok" {
		t.Errorf("Unexpected metrics %v", metrics.calls)
	}
}

func TestSignup_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepository())
	ctx := context.Background()

	testCases := []struct {
		name string
		req  SignupRequest
		want error
	}{
		{"Missing user type", SignupRequest{Password: "x"}, ErrMissingFields},
		{"Missing password", SignupRequest{UserType: UserTypeLab}, ErrMissingFields},
		{"Unknown user type", SignupRequest{UserType: "janitor", Password: "x"}, ErrInvalidUserType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got: %v", tc.want, err)
			}
			if apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("Expected validation kind, got %s", apperror.KindOf(err))
			}
		})
	}
}

func TestSignup_UserTypeExists(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{UserType: UserTypeDoctor, Password: "first"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	_, err := svc.Signup(ctx, SignupRequest{UserType: UserTypeDoctor, Password: "second"})
	if !errors.Is(err, ErrUserTypeExists) {
		t.Errorf("Expected ErrUserTypeExists, got: %v", err)
	}
}

func TestSignup_RaceOnUniqueIndex(t *testing.T) {
	repo := &mockRepository{
		getByUserTypeFunc: func(ctx context.Context, userType UserType) (*Employee, error) {
			return nil, ErrNotFound
		},
		createFunc: func(ctx context.Context, e *Employee) error {
			return ErrDuplicateUserType
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Signup(context.Background(), SignupRequest{UserType: UserTypeAdmin, Password: "x"})
	if !errors.Is(err, ErrUserTypeExists) {
		t.Errorf("Expected ErrUserTypeExists, got: %v", err)
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	repo := &mockRepository{
		getByUserTypeFunc: func(ctx context.Context, userType UserType) (*Employee, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Signup(context.Background(), SignupRequest{UserType: UserTypeAdmin, Password: "x"})
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Errorf("Expected internal error, got: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, metrics := newTestService(t, NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{UserType: UserTypeEyeDoctor, Password: "s3cret"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	res, err := svc.Login(ctx, LoginRequest{UserType: UserTypeEyeDoctor, Password: "s3cret"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.UserType != UserTypeEyeDoctor || res.Token == "" {
		t.Errorf("Unexpected result %+v", res)
	}
	if metrics.calls[len(metrics.calls)-1] != "login:eye-doctor:ok" {
		t.Errorf("Unexpected metrics %v", metrics.calls)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{UserType: UserTypeRegistrar, Password: "front-desk"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	testCases := []struct {
		name string
		req  LoginRequest
		want error
		kind apperror.Kind
	}{
		{"Missing password", LoginRequest{UserType: UserTypeRegistrar}, ErrMissingFields, apperror.KindValidation},
		{"Unknown user type", LoginRequest{UserType: UserTypeLab, Password: "front-desk"}, ErrUnknownUserType, apperror.KindAuth},
		{"Wrong password", LoginRequest{UserType: UserTypeRegistrar, Password: "front-desk2"}, ErrIncorrectPassword, apperror.KindAuth},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got: %v", tc.want, err)
			}
			if apperror.KindOf(err) != tc.kind {
				t.Errorf("Expected kind %s, got %s", tc.kind, apperror.KindOf(err))
			}
		})
	}
}

func TestLogin_CorruptCiphertextIsIncorrectPassword(t *testing.T) {
	repo := &mockRepository{
		getByUserTypeFunc: func(ctx context.Context, userType UserType) (*Employee, error) {
			return &Employee{ID: "e-1", UserType: userType, Password: "not-a-ciphertext"}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{UserType: UserTypeAdmin, Password: "x"})
	if !errors.Is(err, ErrIncorrectPassword) {
		t.Errorf("Expected ErrIncorrectPassword, got: %v", err)
	}
	if apperror.Message(err) != "Incorrect password" {
		t.Errorf("Unexpected message %q", apperror.Message(err))
	}
}

func TestLogin_TokenFailure(t *testing.T) {
	repo := NewMemoryRepository()
	cipher := newTestCipher(t)
	tokens := &mockTokenIssuer{issueFunc: func(employeeID, userType string) (string, error) {
		return "", errors.New("signing failed")
	}}
	svc := NewService(repo, cipher, tokens, nil, nil, nil)

	stored, _ := cipher.Encrypt("pw")
	_ = repo.Create(context.Background(), &Employee{ID: "e-1", UserType: UserTypeLab, Password: stored})

	_, err := svc.Login(context.Background(), LoginRequest{UserType: UserTypeLab, Password: "pw"})
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Errorf("Expected internal error, got: %v", err)
	}
}

func TestUserTypeIsValid(t *testing.T) {
	for _, u := range AllUserTypes {
		if !u.IsValid() {
			t.Errorf("Expected %s to be valid", u)
		}
	}
	if UserType("Admin").IsValid() {
		t.Error("Expected user types to be case sensitive")
	}
}
