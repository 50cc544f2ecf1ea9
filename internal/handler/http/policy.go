package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type PolicyHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	RotateQRSecret(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyService policy.PolicyService
}

func NewPolicyHandler(policyService policy.PolicyService) PolicyHandler {
	return &policyHandlerImpl{
		policyService: policyService,
	}
}

// Get implements PolicyHandler.
func (h *policyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.policyService.GetPolicy(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements PolicyHandler.
func (h *policyHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req policy.UpdatePolicyRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.policyService.UpdatePolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy updated", result)
}

// RotateQRSecret implements PolicyHandler.
func (h *policyHandlerImpl) RotateQRSecret(w http.ResponseWriter, r *http.Request) {
	result, err := h.policyService.RotateQRSecret(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "QR secret rotated", result)
}
