package handler

import (
	"github.com/labstack/echo/v4"

	"salonepay/internal/domain/repository"
	"salonepay/internal/infrastructure/firebase"
	"salonepay/pkg/errors"
	"salonepay/pkg/response"
)

type DevTokenHandler struct {
	firebaseAuth *firebase.FirebaseAuthClient
	userRepo     repository.UserRepository
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(firebaseAuth *firebase.FirebaseAuthClient, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		firebaseAuth: firebaseAuth,
		userRepo:     userRepo,
	}
}

func SetupDevTokenHandler(firebaseAuth *firebase.FirebaseAuthClient, userRepo repository.UserRepository) {
	devTokenHandler = NewDevTokenHandler(firebaseAuth, userRepo)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

// GenerateUserToken mints a long-lived token for the user identified by the
// uid or email query parameter. Dev environments only.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		email := c.QueryParam("email")
		if email == "" {
			return response.Error(c, errors.BadRequest("uid or email query parameter is required", nil))
		}
		user, err := h.userRepo.GetByEmail(c.Request().Context(), email)
		if err != nil {
			return response.Error(c, err)
		}
		uid = user.ID
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	token, err := h.firebaseAuth.GenerateLongLivedToken(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// GenerateAdminToken mints a long-lived token for the first admin account.
func (h *DevTokenHandler) GenerateAdminToken(c echo.Context) error {
	admins, err := h.userRepo.ListAdmins(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	if len(admins) == 0 {
		return response.Error(c, errors.NotFound("Admin user", nil))
	}

	admin := admins[0]

	token, err := h.firebaseAuth.GenerateLongLivedToken(c.Request().Context(), admin.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       admin.ID,
			"email":    admin.Email,
			"username": admin.Username,
			"role":     admin.Role,
		},
	})
}
