package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jalh2/healthyubackend/internal/auth"
	"github.com/jalh2/healthyubackend/internal/employee"
	httpserver "github.com/jalh2/healthyubackend/internal/http"
	"github.com/jalh2/healthyubackend/internal/patient"
	"github.com/jalh2/healthyubackend/internal/testutil"
)

const testEncryptionKey = "e2e-key-0123456789abcdef01234567"

// TestServer represents a complete E2E test environment
type TestServer struct {
	Server        *httptest.Server
	MockPublisher *testutil.RecordingPublisher
	Tokens        *auth.TokenManager
	Patients      *patient.MemoryRepository
}

// SetupE2ETest wires the real router and services over in-memory stores and
// a recording publisher.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	publisher := testutil.NewRecordingPublisher()
	tokens := testutil.NewTestTokenManager(t)

	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}
	cipher, err := employee.NewCipher(testEncryptionKey)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	patients := patient.NewMemoryRepository()
	router := httpserver.SetupRouter(httpserver.Dependencies{
		Patients:    patient.NewService(patients, publisher, nil, nil),
		Employees:   employee.NewService(employee.NewMemoryRepository(), cipher, tokens, publisher, nil, nil),
		Verifier:    tokens,
		Permissions: perms,
		HTTPMetrics: httpserver.NewMetrics(prometheus.NewRegistry()),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:        server,
		MockPublisher: publisher,
		Tokens:        tokens,
		Patients:      patients,
	}
}

// NewClient creates a new HTTP test client for this server with the given token
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}

// Signup creates the employee account for userType and returns its token.
func (ts *TestServer) Signup(t *testing.T, userType employee.UserType, password string) string {
	t.Helper()

	resp := ts.NewClient("").POST(t, "/api/employee/signup", employee.SignupRequest{UserType: userType, Password: password})
	if resp.StatusCode != 201 {
		t.Fatalf("Signup %s failed: %d %s", userType, resp.StatusCode, testutil.ReadBody(t, resp))
	}
	var res employee.AuthResult
	testutil.DecodeJSON(t, resp, &res)
	return res.Token
}
