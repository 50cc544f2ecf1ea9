package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

type ReserveLeaveRequest struct {
	Year     int    `json:"year"`
	Category string `json:"category"`
	Days     int    `json:"days"`
}

func (r *ReserveLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Year < 2000 || r.Year > 2200 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if validator.IsEmpty(r.Category) {
		errs = append(errs, validator.ValidationError{
			Field:   "category",
			Message: "category is required",
		})
	}

	if r.Days <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: "days must be greater than zero",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ReleaseLeaveRequest struct {
	Year     int    `json:"year"`
	Category string `json:"category"`
	Days     int    `json:"days"`
}

func (r *ReleaseLeaveRequest) Validate() error {
	reserve := ReserveLeaveRequest(*r)
	return reserve.Validate()
}

// GrantLeaveRequest stands in for the external approval workflow writing an
// approved leave day.
type GrantLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Category   string `json:"category"`
}

func (r *GrantLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.Category) {
		errs = append(errs, validator.ValidationError{
			Field:   "category",
			Message: "category is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LeaveQuotaResponse struct {
	Category  string `json:"category"`
	Year      int    `json:"year"`
	Allocated int    `json:"allocated"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

type LeaveGrantResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToLeaveQuotaResponse(q LeaveQuota) LeaveQuotaResponse {
	return LeaveQuotaResponse{
		Category:  q.Category,
		Year:      q.Year,
		Allocated: q.Allocated,
		Used:      q.Used,
		Remaining: q.Allocated - q.Used,
	}
}

func ToLeaveGrantResponse(g LeaveGrant) LeaveGrantResponse {
	return LeaveGrantResponse{
		ID:         g.ID,
		EmployeeID: g.EmployeeID,
		Date:       g.Date.Format("2006-01-02"),
		Category:   g.Category,
		CreatedAt:  g.CreatedAt,
	}
}
