package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Break(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// requestIP extracts the client address for WiFi CIDR verification when the
// submission does not carry one. RealIP middleware already unwrapped proxy
// headers into RemoteAddr.
func requestIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if req.Evidence.SourceIP == "" {
		req.Evidence.SourceIP = requestIP(r)
	}

	result, err := h.attendanceService.SubmitCheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check-in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if req.Evidence.SourceIP == "" {
		req.Evidence.SourceIP = requestIP(r)
	}

	result, err := h.attendanceService.SubmitCheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check-out successful", result)
}

// Break implements AttendanceHandler.
func (h *attendanceHandlerImpl) Break(w http.ResponseWriter, r *http.Request) {
	var req attendance.BreakRequest

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	result, err := h.attendanceService.RecordBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break recorded", result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := attendance.MyAttendanceFilter{}
	filter.Year, _ = strconv.Atoi(query.Get("year"))
	filter.Month, _ = strconv.Atoi(query.Get("month"))
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.attendanceService.GetMyAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Items, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalItems,
	})
}
