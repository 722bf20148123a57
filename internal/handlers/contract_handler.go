package handlers

import (
	"errors"
	"net/http"

	"github.com/Samarth07-ctrl/squadvault/internal/algod"
	"github.com/Samarth07-ctrl/squadvault/internal/services"
)

type ContractHandler struct {
	service *services.ContractService
}

func NewContractHandler(service *services.ContractService) *ContractHandler {
	return &ContractHandler{service: service}
}

// GetDeploymentParams returns compiled bytecode and schemas for deployment.
// @Summary Get contract deployment parameters
// @Description Compiles the pool contract's TEAL programs and returns base64 bytecode plus state schemas
// @Tags contract
// @Produce json
// @Success 200 {object} services.DeploymentParams
// @Failure 404 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /contract/params [get]
func (h *ContractHandler) GetDeploymentParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.DeploymentParams(r.Context())
	if err != nil {
		var compileErr *algod.CompileError
		switch {
		case errors.Is(err, services.ErrArtifactsMissing):
			services.SendErrorResponse(w, "TEAL artifacts not found. Run the contract build step first.", http.StatusNotFound, nil)
		case errors.As(err, &compileErr):
			services.SendErrorResponse(w, "Failed to compile contract: "+compileErr.Detail, http.StatusBadGateway, nil)
		case errors.Is(err, algod.ErrUnavailable):
			services.SendErrorResponse(w, "Compiler temporarily unavailable, retry later", http.StatusServiceUnavailable, nil)
		default:
			services.SendErrorResponse(w, "Failed to compile contract", http.StatusInternalServerError, nil)
		}
		return
	}

	services.WriteJSON(w, http.StatusOK, params)
}
