package ingest

import (
	"net/http"

	"leadrouter_backend/internal/engagement/service"
	"leadrouter_backend/internal/engagement/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	routing *service.Service
	repo    *Repository
	val     *validator.Validator
}

func NewHandler(routing *service.Service, repo *Repository, val *validator.Validator) *Handler {
	return &Handler{routing: routing, repo: repo, val: val}
}

// HandleSubmitEvent accepts one engagement event from an adapter. The
// response status tells the adapter what to do: 2xx stop redelivering, 4xx
// fix the payload, 429/5xx redeliver with backoff.
func (h *Handler) HandleSubmitEvent(c *gin.Context) {
	var req transport.SubmitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	// A bound key may only submit events for the source it was issued for.
	// Unbound keys pass the claimed source through; normalization leaves
	// those events unverified.
	boundSource := c.GetString(ContextSourceKey)
	if boundSource != "" && req.Source != boundSource {
		httpkit.Error(c, http.StatusForbidden, "API key not authorized for source "+req.Source, nil)
		return
	}

	raw := req.ToRawEvent()
	raw.SourceBound = boundSource != ""

	result, err := h.routing.Ingest(c.Request.Context(), raw)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, result)
}

// CreateAPIKeyRequest is the admin payload for minting an adapter key. An
// empty source mints an unbound key whose submissions stay unverified.
type CreateAPIKeyRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=100"`
	Source string `json:"source" validate:"omitempty,oneof=outreach_platform crm_platform network_platform visitor_id_provider website manual"`
}

// HandleCreateAPIKey mints a new adapter API key. The plaintext key appears
// in this response only; afterwards only the hash exists.
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "key generation failed", nil)
		return
	}

	key, err := h.repo.Create(c.Request.Context(), req.Name, req.Source, hash, prefix)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "key creation failed", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{
		"id":        key.ID,
		"name":      key.Name,
		"source":    key.Source,
		"keyPrefix": key.KeyPrefix,
		"apiKey":    plaintext,
		"createdAt": key.CreatedAt,
	})
}

// HandleListAPIKeys returns all adapter keys without hashes.
func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	keys, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "key listing failed", nil)
		return
	}

	out := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		out = append(out, gin.H{
			"id":        key.ID,
			"name":      key.Name,
			"source":    key.Source,
			"keyPrefix": key.KeyPrefix,
			"isActive":  key.IsActive,
			"createdAt": key.CreatedAt,
		})
	}
	httpkit.OK(c, gin.H{"keys": out})
}

// HandleRevokeAPIKey deactivates an adapter key.
func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.repo.Revoke(c.Request.Context(), keyID); err != nil {
		if err == ErrAPIKeyNotFound {
			httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "key revocation failed", nil)
		return
	}

	httpkit.OK(c, gin.H{"revoked": keyID})
}
