package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/internal/usecase"
	"salonepay/pkg/errors"
	"salonepay/pkg/logger"
	"salonepay/pkg/response"
	"salonepay/pkg/utils"
)

type DisputeHandler struct {
	disputeUseCase *usecase.DisputeUseCase
	userRepo       repository.UserRepository
	maxFileSize    int64
}

func NewDisputeHandler(disputeUseCase *usecase.DisputeUseCase, userRepo repository.UserRepository) *DisputeHandler {
	return &DisputeHandler{
		disputeUseCase: disputeUseCase,
		userRepo:       userRepo,
		maxFileSize:    10 * 1024 * 1024,
	}
}

type createDisputeRequest struct {
	Reason        string `json:"reason" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Amount        int64  `json:"amount" validate:"min=0"`
	Currency      string `json:"currency" validate:"required,len=3"`
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
	BusinessID    string `json:"business_id"`
	MerchantID    string `json:"merchant_id"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

type resolveDisputeRequest struct {
	Outcome string `json:"outcome" validate:"required"`
	Amount  *int64 `json:"amount" validate:"omitempty,min=0"`
	Notes   string `json:"notes"`
}

type escalateDisputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type reopenDisputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type assignDisputeRequest struct {
	AdminID string `json:"admin_id" validate:"required"`
}

// resolveActor loads the caller's profile and maps their account role onto a
// dispute party role.
func resolveActor(c echo.Context, userRepo repository.UserRepository) (usecase.Actor, error) {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return usecase.Actor{}, errors.Unauthorized("Authentication required", nil)
	}

	user, err := userRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		return usecase.Actor{}, err
	}

	role := entity.RoleCustomer
	switch user.Role {
	case "admin":
		role = entity.RoleAdmin
	case "merchant":
		role = entity.RoleMerchant
	}

	return usecase.Actor{ID: uid, Role: role}, nil
}

func (h *DisputeHandler) CreateDispute(c echo.Context) error {
	var req createDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.CreateDispute(c.Request().Context(), actor, usecase.CreateDisputeInput{
		Reason:        entity.DisputeReason(req.Reason),
		Description:   req.Description,
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
		PaymentID:     req.PaymentID,
		BusinessID:    req.BusinessID,
		MerchantID:    req.MerchantID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, dispute)
}

func (h *DisputeHandler) GetDispute(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.GetDispute(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	if actor.Role != entity.RoleAdmin && dispute.CustomerID != actor.ID && dispute.MerchantID != actor.ID {
		return response.Error(c, errors.Forbidden("You are not a participant in this dispute", nil))
	}

	return response.Success(c, dispute)
}

// ListMyDisputes returns disputes the caller filed.
func (h *DisputeHandler) ListMyDisputes(c echo.Context) error {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	params := utils.GetPaginationParams(c)

	disputes, total, err := h.disputeUseCase.ListByCustomer(c.Request().Context(), uid, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, disputes, total, params.Page, params.PageSize)
}

// ListBusinessDisputes returns disputes filed against a business. Merchants
// see their own; admins see any.
func (h *DisputeHandler) ListBusinessDisputes(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	businessID := c.Param("businessId")
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleMerchant {
		return response.Error(c, errors.Forbidden("Merchant or admin access required", nil))
	}

	params := utils.GetPaginationParams(c)

	disputes, total, err := h.disputeUseCase.ListByBusiness(c.Request().Context(), businessID, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, disputes, total, params.Page, params.PageSize)
}

// ListDisputes is the admin listing with status/priority/assignee/search
// filters.
func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	filter := repository.DisputeFilter{
		Status:     entity.DisputeStatus(c.QueryParam("status")),
		Priority:   entity.DisputePriority(c.QueryParam("priority")),
		AssignedTo: c.QueryParam("assigned_to"),
		Search:     c.QueryParam("search"),
	}

	params := utils.GetPaginationParams(c)

	disputes, total, err := h.disputeUseCase.ListAll(c.Request().Context(), filter, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, disputes, total, params.Page, params.PageSize)
}

func (h *DisputeHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.UpdateStatus(c.Request().Context(), actor, c.Param("id"), entity.DisputeStatus(req.Status), req.Notes)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

func (h *DisputeHandler) ResolveDispute(c echo.Context) error {
	var req resolveDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.Resolve(c.Request().Context(), actor, c.Param("id"), usecase.ResolveDisputeInput{
		Outcome: entity.ResolutionOutcome(req.Outcome),
		Amount:  req.Amount,
		Notes:   req.Notes,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

func (h *DisputeHandler) EscalateDispute(c echo.Context) error {
	var req escalateDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.Escalate(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

func (h *DisputeHandler) ReopenDispute(c echo.Context) error {
	var req reopenDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.Reopen(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

func (h *DisputeHandler) AssignDispute(c echo.Context) error {
	var req assignDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.AssignToAdmin(c.Request().Context(), actor, c.Param("id"), req.AdminID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

// UploadEvidence accepts a multipart file and attaches it to the caller's
// side of the dispute.
func (h *DisputeHandler) UploadEvidence(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		logger.Error("Error getting evidence file from form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Error opening evidence file: %v", err)
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	item, err := h.disputeUseCase.UploadEvidence(
		c.Request().Context(),
		actor,
		c.Param("id"),
		src,
		file.Header.Get("Content-Type"),
		file.Filename,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, item)
}

// GetEvidenceDownloadURL trades a stored evidence URL for a short-lived
// signed link.
func (h *DisputeHandler) GetEvidenceDownloadURL(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	fileURL := c.QueryParam("url")
	if fileURL == "" {
		return response.Error(c, errors.BadRequest("url query parameter is required", nil))
	}

	signed, err := h.disputeUseCase.GetEvidenceDownloadURL(c.Request().Context(), actor, c.Param("id"), fileURL)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"download_url": signed,
		"expires_in":   "15m",
	})
}

func (h *DisputeHandler) GetEvents(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}
	if actor.Role != entity.RoleAdmin {
		return response.Error(c, errors.Forbidden("Admin access required", nil))
	}

	events, err := h.disputeUseCase.GetEvents(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, events)
}

func (h *DisputeHandler) GetStats(c echo.Context) error {
	stats, err := h.disputeUseCase.GetStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}

// GetSuggestedResponse lets the merchant ask for a drafted reply. An empty
// body means the assistant is unavailable.
func (h *DisputeHandler) GetSuggestedResponse(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}
	if actor.Role != entity.RoleMerchant && actor.Role != entity.RoleAdmin {
		return response.Error(c, errors.Forbidden("Merchant or admin access required", nil))
	}

	suggestion, err := h.disputeUseCase.GetSuggestedResponse(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"available":  suggestion != nil,
		"suggestion": suggestion,
	})
}
