package leave

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// In-memory fakes
// ========================================

type fakeQuotaRepo struct {
	mu      sync.Mutex
	entries map[string]*leave.LeaveQuota // keyed by entry ID
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{entries: make(map[string]*leave.LeaveQuota)}
}

func (f *fakeQuotaRepo) GetByEmployeeYearCategory(ctx context.Context, employeeID string, year int, category string, companyID string) (*leave.LeaveQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.EmployeeID == employeeID && e.Year == year && e.Category == category && e.CompanyID == companyID {
			found := *e
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeQuotaRepo) Create(ctx context.Context, quota leave.LeaveQuota) (leave.LeaveQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirror the unique index on (employee_id, year, category).
	for _, e := range f.entries {
		if e.EmployeeID == quota.EmployeeID && e.Year == quota.Year && e.Category == quota.Category && e.CompanyID == quota.CompanyID {
			return leave.LeaveQuota{}, fmt.Errorf("duplicate quota entry")
		}
	}
	stored := quota
	f.entries[quota.ID] = &stored
	return quota, nil
}

func (f *fakeQuotaRepo) TryReserve(ctx context.Context, id string, days int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	if e.Used+days > e.Allocated {
		return false, nil
	}
	e.Used += days
	return true, nil
}

func (f *fakeQuotaRepo) TryRelease(ctx context.Context, id string, days int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	if e.Used-days < 0 {
		return false, nil
	}
	e.Used -= days
	return true, nil
}

func (f *fakeQuotaRepo) ListByEmployeeYear(ctx context.Context, employeeID string, year int, companyID string) ([]leave.LeaveQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveQuota
	for _, e := range f.entries {
		if e.EmployeeID == employeeID && e.Year == year && e.CompanyID == companyID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeGrantRepo struct {
	mu     sync.Mutex
	grants []leave.LeaveGrant
}

func (f *fakeGrantRepo) Create(ctx context.Context, grant leave.LeaveGrant) (leave.LeaveGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grant.CreatedAt = time.Now().UTC()
	f.grants = append(f.grants, grant)
	return grant, nil
}

func (f *fakeGrantRepo) HasGrantForDate(ctx context.Context, employeeID string, date time.Time, companyID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants {
		if g.EmployeeID == employeeID && g.CompanyID == companyID && g.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

type fakePolicyRepo struct {
	policies map[string]policy.Policy
}

func (f *fakePolicyRepo) GetByCompanyID(ctx context.Context, companyID string) (policy.Policy, error) {
	pol, ok := f.policies[companyID]
	if !ok {
		return policy.Policy{}, policy.ErrPolicyNotFound
	}
	return pol, nil
}

func (f *fakePolicyRepo) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	f.policies[p.CompanyID] = p
	return p, nil
}

func (f *fakePolicyRepo) UpdateVersioned(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	p.Version++
	f.policies[p.CompanyID] = p
	return p, nil
}

// ========================================
// Helpers
// ========================================

func employeeCtx(t *testing.T, companyID, employeeID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id":  companyID,
		"employee_id": employeeID,
		"role":        "employee",
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newTestService(t *testing.T) (leave.LeaveService, *fakeQuotaRepo, *fakeGrantRepo) {
	t.Helper()
	quotaRepo := newFakeQuotaRepo()
	grantRepo := &fakeGrantRepo{}
	polRepo := &fakePolicyRepo{policies: map[string]policy.Policy{
		"company-1": policy.Default("company-1"), // annual 12, sick 10, unpaid 30
	}}
	// No pool here: the transaction wrapper runs the callback directly when
	// the repositories are in-memory fakes.
	svc := NewLeaveService(nil, quotaRepo, grantRepo, polRepo)
	return svc, quotaRepo, grantRepo
}

// ========================================
// Reserve / Release
// ========================================

func TestReserve_LazyCreatesFromPolicyAllocation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	resp, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 3})

	require.NoError(t, err)
	assert.Equal(t, 12, resp.Allocated)
	assert.Equal(t, 3, resp.Used)
	assert.Equal(t, 9, resp.Remaining)
}

func TestReserve_InsufficientQuota(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 13})
	assert.ErrorIs(t, err, leave.ErrInsufficientQuota)

	// The full allocation is still available after a rejected reserve.
	resp, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 12})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Remaining)

	_, err = svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 1})
	assert.ErrorIs(t, err, leave.ErrInsufficientQuota)
}

func TestReserve_UnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "sabbatical", Days: 1})
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveCategory)
}

func TestReserve_InvalidRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 0})
	assert.Error(t, err)

	_, err = svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 1990, Category: "annual", Days: 1})
	assert.Error(t, err)
}

func TestRelease(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 5})
	require.NoError(t, err)

	resp, err := svc.Release(ctx, leave.ReleaseLeaveRequest{Year: 2025, Category: "annual", Days: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Used)
	assert.Equal(t, 10, resp.Remaining)

	// Cannot release more than was ever reserved.
	_, err = svc.Release(ctx, leave.ReleaseLeaveRequest{Year: 2025, Category: "annual", Days: 3})
	assert.ErrorIs(t, err, leave.ErrReleaseExceedsUsed)
}

func TestRelease_WithoutEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Release(ctx, leave.ReleaseLeaveRequest{Year: 2025, Category: "annual", Days: 1})
	assert.ErrorIs(t, err, leave.ErrQuotaNotFound)
}

func TestReserve_ConcurrentNeverExceedsAllocation(t *testing.T) {
	svc, quotaRepo, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	// Seed the entry so every goroutine races on the same row.
	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 1 // the seed reservation
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 1})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 12, successes)

	entry, err := quotaRepo.GetByEmployeeYearCategory(ctx, "employee-1", 2025, "annual", "company-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 12, entry.Used)
	assert.LessOrEqual(t, entry.Used, entry.Allocated)
}

// ========================================
// Grants
// ========================================

func TestGrant(t *testing.T) {
	svc, _, grantRepo := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-admin")

	resp, err := svc.Grant(ctx, leave.GrantLeaveRequest{
		EmployeeID: "employee-2",
		Date:       "2025-03-03",
		Category:   "annual",
	})

	require.NoError(t, err)
	assert.Equal(t, "employee-2", resp.EmployeeID)
	assert.Equal(t, "2025-03-03", resp.Date)

	date, _ := time.Parse("2006-01-02", "2025-03-03")
	has, err := grantRepo.HasGrantForDate(ctx, "employee-2", date, "company-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGrant_InvalidRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-admin")

	_, err := svc.Grant(ctx, leave.GrantLeaveRequest{EmployeeID: "", Date: "2025-03-03", Category: "annual"})
	assert.Error(t, err)

	_, err = svc.Grant(ctx, leave.GrantLeaveRequest{EmployeeID: "employee-2", Date: "03/03/2025", Category: "annual"})
	assert.Error(t, err)
}

// ========================================
// List
// ========================================

func TestListQuotas(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := employeeCtx(t, "company-1", "employee-1")

	_, err := svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "annual", Days: 2})
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, leave.ReserveLeaveRequest{Year: 2025, Category: "sick", Days: 1})
	require.NoError(t, err)

	quotas, err := svc.ListQuotas(ctx, 2025)

	require.NoError(t, err)
	assert.Len(t, quotas, 2)

	byCategory := make(map[string]leave.LeaveQuotaResponse)
	for _, q := range quotas {
		byCategory[q.Category] = q
	}
	assert.Equal(t, 2, byCategory["annual"].Used)
	assert.Equal(t, 10, byCategory["annual"].Remaining)
	assert.Equal(t, 1, byCategory["sick"].Used)
	assert.Equal(t, 9, byCategory["sick"].Remaining)
}
