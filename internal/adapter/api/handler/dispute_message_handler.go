package handler

import (
	"github.com/labstack/echo/v4"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/internal/usecase"
	"salonepay/pkg/errors"
	"salonepay/pkg/response"
)

type DisputeMessageHandler struct {
	messageUseCase *usecase.DisputeMessageUseCase
	userRepo       repository.UserRepository
}

func NewDisputeMessageHandler(messageUseCase *usecase.DisputeMessageUseCase, userRepo repository.UserRepository) *DisputeMessageHandler {
	return &DisputeMessageHandler{
		messageUseCase: messageUseCase,
		userRepo:       userRepo,
	}
}

type sendDisputeMessageRequest struct {
	Content     string              `json:"content"`
	Internal    bool                `json:"internal"`
	Attachments []messageAttachment `json:"attachments,omitempty"`
}

type messageAttachment struct {
	URL  string `json:"url" validate:"required,url"`
	Type string `json:"type" validate:"required"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (h *DisputeMessageHandler) SendMessage(c echo.Context) error {
	var req sendDisputeMessageRequest
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

	attachments := make([]entity.MessageAttachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, entity.MessageAttachment{
			URL:  a.URL,
			Type: a.Type,
			Name: a.Name,
			Size: a.Size,
		})
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), actor, c.Param("id"), usecase.SendMessageInput{
		Content:     req.Content,
		Internal:    req.Internal,
		Attachments: attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *DisputeMessageHandler) GetMessages(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.messageUseCase.GetMessages(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *DisputeMessageHandler) MarkRead(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	marked, err := h.messageUseCase.MarkRead(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"marked_read": marked,
	})
}

func (h *DisputeMessageHandler) UnreadCount(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.messageUseCase.UnreadCount(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"unread": count,
	})
}

func (h *DisputeMessageHandler) DeleteMessage(c echo.Context) error {
	actor, err := resolveActor(c, h.userRepo)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.messageUseCase.DeleteMessage(c.Request().Context(), actor, c.Param("id"), c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"deleted": true,
	})
}
