package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LeaveServiceImpl struct {
	db *database.DB
	leave.LeaveQuotaRepository
	leave.LeaveGrantRepository
	policy.PolicyRepository
}

func NewLeaveService(
	db *database.DB,
	quotaRepo leave.LeaveQuotaRepository,
	grantRepo leave.LeaveGrantRepository,
	policyRepo policy.PolicyRepository,
) leave.LeaveService {
	return &LeaveServiceImpl{
		db:                   db,
		LeaveQuotaRepository: quotaRepo,
		LeaveGrantRepository: grantRepo,
		PolicyRepository:     policyRepo,
	}
}

// inTransaction runs fn with a transaction attached to the context, so every
// repository call inside shares one transaction via GetQuerier. Without a
// pool behind the repositories fn runs on the bare context.
func (s *LeaveServiceImpl) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, "tx", tx))
	})
}

func identityFromContext(ctx context.Context) (companyID string, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	employeeID, ok = claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return companyID, employeeID, nil
}

// loadOrCreateEntry returns the ledger entry for (employee, year, category),
// creating it lazily with the allocation seeded from the company policy.
func (s *LeaveServiceImpl) loadOrCreateEntry(ctx context.Context, companyID, employeeID string, year int, category string) (leave.LeaveQuota, error) {
	entry, err := s.LeaveQuotaRepository.GetByEmployeeYearCategory(ctx, employeeID, year, category, companyID)
	if err != nil {
		return leave.LeaveQuota{}, fmt.Errorf("failed to load leave quota: %w", err)
	}
	if entry != nil {
		return *entry, nil
	}

	pol, err := s.PolicyRepository.GetByCompanyID(ctx, companyID)
	if err != nil {
		return leave.LeaveQuota{}, err
	}

	allocated, ok := pol.LeaveQuotas[category]
	if !ok {
		return leave.LeaveQuota{}, leave.ErrUnknownLeaveCategory
	}

	created, err := s.LeaveQuotaRepository.Create(ctx, leave.LeaveQuota{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Year:       year,
		Category:   category,
		Allocated:  allocated,
		Used:       0,
	})
	if err != nil {
		// Lost a lazy-create race; the row that won is authoritative.
		slog.Debug("Leave quota create lost race, re-reading",
			"employee_id", employeeID, "year", year, "category", category)
		entry, getErr := s.LeaveQuotaRepository.GetByEmployeeYearCategory(ctx, employeeID, year, category, companyID)
		if getErr != nil || entry == nil {
			return leave.LeaveQuota{}, fmt.Errorf("failed to create leave quota: %w", err)
		}
		return *entry, nil
	}

	return created, nil
}

// Reserve implements leave.LeaveService.
func (s *LeaveServiceImpl) Reserve(ctx context.Context, req leave.ReserveLeaveRequest) (leave.LeaveQuotaResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveQuotaResponse{}, err
	}

	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return leave.LeaveQuotaResponse{}, err
	}

	// The lazy create and the reservation commit or roll back together, so a
	// rejected reservation never leaves a half-initialized ledger entry.
	var updated *leave.LeaveQuota
	err = s.inTransaction(ctx, func(txCtx context.Context) error {
		entry, err := s.loadOrCreateEntry(txCtx, companyID, employeeID, req.Year, req.Category)
		if err != nil {
			return err
		}

		ok, err := s.LeaveQuotaRepository.TryReserve(txCtx, entry.ID, req.Days)
		if err != nil {
			return fmt.Errorf("failed to reserve leave: %w", err)
		}
		if !ok {
			return leave.ErrInsufficientQuota
		}

		updated, err = s.LeaveQuotaRepository.GetByEmployeeYearCategory(txCtx, employeeID, req.Year, req.Category, companyID)
		if err != nil || updated == nil {
			return fmt.Errorf("failed to re-read leave quota: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveQuotaResponse{}, err
	}

	return leave.ToLeaveQuotaResponse(*updated), nil
}

// Release implements leave.LeaveService.
func (s *LeaveServiceImpl) Release(ctx context.Context, req leave.ReleaseLeaveRequest) (leave.LeaveQuotaResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveQuotaResponse{}, err
	}

	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return leave.LeaveQuotaResponse{}, err
	}

	entry, err := s.LeaveQuotaRepository.GetByEmployeeYearCategory(ctx, employeeID, req.Year, req.Category, companyID)
	if err != nil {
		return leave.LeaveQuotaResponse{}, fmt.Errorf("failed to load leave quota: %w", err)
	}
	if entry == nil {
		return leave.LeaveQuotaResponse{}, leave.ErrQuotaNotFound
	}

	ok, err := s.LeaveQuotaRepository.TryRelease(ctx, entry.ID, req.Days)
	if err != nil {
		return leave.LeaveQuotaResponse{}, fmt.Errorf("failed to release leave: %w", err)
	}
	if !ok {
		return leave.LeaveQuotaResponse{}, leave.ErrReleaseExceedsUsed
	}

	updated, err := s.LeaveQuotaRepository.GetByEmployeeYearCategory(ctx, employeeID, req.Year, req.Category, companyID)
	if err != nil || updated == nil {
		return leave.LeaveQuotaResponse{}, fmt.Errorf("failed to re-read leave quota: %w", err)
	}

	return leave.ToLeaveQuotaResponse(*updated), nil
}

// Grant implements leave.LeaveService. Stands in for the external approval
// workflow: records an approved leave day that the classifier will pick up.
func (s *LeaveServiceImpl) Grant(ctx context.Context, req leave.GrantLeaveRequest) (leave.LeaveGrantResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveGrantResponse{}, err
	}

	companyID, _, err := identityFromContext(ctx)
	if err != nil {
		return leave.LeaveGrantResponse{}, err
	}

	date, _ := time.Parse("2006-01-02", req.Date)

	grant, err := s.LeaveGrantRepository.Create(ctx, leave.LeaveGrant{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		CompanyID:  companyID,
		Date:       date,
		Category:   req.Category,
	})
	if err != nil {
		return leave.LeaveGrantResponse{}, fmt.Errorf("failed to create leave grant: %w", err)
	}

	return leave.ToLeaveGrantResponse(grant), nil
}

// ListQuotas implements leave.LeaveService.
func (s *LeaveServiceImpl) ListQuotas(ctx context.Context, year int) ([]leave.LeaveQuotaResponse, error) {
	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if year == 0 {
		year = time.Now().Year()
	}

	entries, err := s.LeaveQuotaRepository.ListByEmployeeYear(ctx, employeeID, year, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave quotas: %w", err)
	}

	responses := make([]leave.LeaveQuotaResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, leave.ToLeaveQuotaResponse(entry))
	}

	return responses, nil
}
