package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type LeaveHandler interface {
	Reserve(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	Grant(w http.ResponseWriter, r *http.Request)
	ListQuotas(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{
		leaveService: leaveService,
	}
}

// Reserve implements LeaveHandler.
func (h *leaveHandlerImpl) Reserve(w http.ResponseWriter, r *http.Request) {
	var req leave.ReserveLeaveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.leaveService.Reserve(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave reserved", result)
}

// Release implements LeaveHandler.
func (h *leaveHandlerImpl) Release(w http.ResponseWriter, r *http.Request) {
	var req leave.ReleaseLeaveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.leaveService.Release(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave released", result)
}

// Grant implements LeaveHandler.
func (h *leaveHandlerImpl) Grant(w http.ResponseWriter, r *http.Request) {
	var req leave.GrantLeaveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.leaveService.Grant(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave granted", result)
}

// ListQuotas implements LeaveHandler.
func (h *leaveHandlerImpl) ListQuotas(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	result, err := h.leaveService.ListQuotas(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
