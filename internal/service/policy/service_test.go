package policy

import (
	"context"
	"sync"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicyRepo struct {
	mu       sync.Mutex
	policies map[string]policy.Policy
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[string]policy.Policy)}
}

func (f *fakePolicyRepo) GetByCompanyID(ctx context.Context, companyID string) (policy.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pol, ok := f.policies[companyID]
	if !ok {
		return policy.Policy{}, policy.ErrPolicyNotFound
	}
	return pol, nil
}

func (f *fakePolicyRepo) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.Version = 0
	f.policies[p.CompanyID] = p
	return p, nil
}

func (f *fakePolicyRepo) UpdateVersioned(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.policies[p.CompanyID]
	if !ok || stored.Version != p.Version {
		return policy.Policy{}, policy.ErrPolicyConflict
	}
	p.Version++
	f.policies[p.CompanyID] = p
	return p, nil
}

func (f *fakePolicyRepo) stored(companyID string) policy.Policy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policies[companyID]
}

func adminCtx(t *testing.T, companyID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id":  companyID,
		"employee_id": "employee-admin",
		"role":        "admin",
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func TestDefaultPolicyIsValid(t *testing.T) {
	pol := policy.Default("company-1")
	assert.NoError(t, pol.Validate())
}

func TestGetPolicy_SeedsDefaultOnFirstAccess(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	resp, err := svc.GetPolicy(ctx)

	require.NoError(t, err)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Equal(t, "09:00", resp.AttendanceStartTime)
	assert.Equal(t, 0, resp.Version)

	// The default was persisted, not just returned.
	stored := repo.stored("company-1")
	assert.Equal(t, "company-1", stored.CompanyID)
}

func TestUpdatePolicy_PatchMergesOntoStored(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	grace := 30
	wifi := policy.WiFiPolicy{Enabled: true, SSID: "office-net", AllowedCIDR: "10.1.0.0/16"}
	resp, err := svc.UpdatePolicy(ctx, policy.UpdatePolicyRequest{
		GraceMinutes: &grace,
		WiFi:         &wifi,
	})

	require.NoError(t, err)
	assert.Equal(t, 30, resp.GraceMinutes)
	assert.Equal(t, "office-net", resp.WiFi.SSID)
	// Untouched fields keep their defaults.
	assert.Equal(t, "09:00", resp.AttendanceStartTime)
	assert.Equal(t, 1, resp.Version)
}

func TestUpdatePolicy_InvalidMergeRejected(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	// half_day_min_hours must stay below full_day_min_hours (default 8).
	halfDay := 9.0
	_, err := svc.UpdatePolicy(ctx, policy.UpdatePolicyRequest{HalfDayMinHours: &halfDay})

	assert.Error(t, err)
	assert.Equal(t, 0, repo.stored("company-1").Version)
	assert.Equal(t, 4.0, repo.stored("company-1").HalfDayMinHours)
}

func TestUpdatePolicy_InvalidClockRejected(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	start := "25:00"
	_, err := svc.UpdatePolicy(ctx, policy.UpdatePolicyRequest{AttendanceStartTime: &start})

	assert.Error(t, err)
}

func TestRotateQRSecret(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	first, err := svc.RotateQRSecret(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Secret)
	assert.False(t, first.RotatedAt.IsZero())
	assert.Equal(t, first.Secret, repo.stored("company-1").QR.CurrentSecret)

	second, err := svc.RotateQRSecret(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)
	assert.Equal(t, second.Secret, repo.stored("company-1").QR.CurrentSecret)
}

func TestUpdatePolicy_CannotTouchQRSecret(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	rotated, err := svc.RotateQRSecret(ctx)
	require.NoError(t, err)

	// Toggling QR on via the patch endpoint must not disturb the secret.
	enabled := true
	_, err = svc.UpdatePolicy(ctx, policy.UpdatePolicyRequest{QREnabled: &enabled})
	require.NoError(t, err)

	stored := repo.stored("company-1")
	assert.True(t, stored.QR.Enabled)
	assert.Equal(t, rotated.Secret, stored.QR.CurrentSecret)
}

func TestGetPolicy_ResponseOmitsSecret(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo)
	ctx := adminCtx(t, "company-1")

	_, err := svc.RotateQRSecret(ctx)
	require.NoError(t, err)

	resp, err := svc.GetPolicy(ctx)
	require.NoError(t, err)

	// The response carries the rotation timestamp but never the secret itself.
	assert.NotNil(t, resp.QR.RotatedAt)
}
