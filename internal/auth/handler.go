package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bearerauth/bearerauth/internal/identity"
)

// UserLocalsKey is the fiber locals key holding the authenticated identity.User.
const UserLocalsKey = "auth_user"

// Handler exposes the sign-up, login and profile endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type phonePayload struct {
	Number      int64  `json:"number"`
	CityCode    int    `json:"cityCode"`
	CountryCode string `json:"countryCode"`
}

type signUpRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Phones   []phonePayload `json:"phones"`
}

type signUpResponse struct {
	ID        string    `json:"id"`
	Created   time.Time `json:"created"`
	LastLogin time.Time `json:"lastLogin"`
	Token     string    `json:"token"`
	IsActive  bool      `json:"isActive"`
}

type userResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email"`
	Phones    []phonePayload `json:"phones"`
	Created   time.Time      `json:"created"`
	LastLogin time.Time      `json:"lastLogin"`
	Token     string         `json:"token"`
	IsActive  bool           `json:"isActive"`
}

// SignUp registers a user and returns its first token.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "malformed request body")
	}

	in := SignUpRequest{Name: req.Name, Email: req.Email, Password: req.Password}
	for _, p := range req.Phones {
		in.Phones = append(in.Phones, PhoneInput{Number: p.Number, CityCode: p.CityCode, CountryCode: p.CountryCode})
	}

	out, err := h.svc.SignUp(c.UserContext(), in)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(signUpResponse{
		ID:        out.ID,
		Created:   out.CreatedAt,
		LastLogin: out.LastLoginAt,
		Token:     out.Token,
		IsActive:  out.IsActive,
	})
}

// Login exchanges a valid bearer token for a fresh one and returns the user.
func (h *Handler) Login(c *fiber.Ctx) error {
	user, err := h.svc.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(newUserResponse(user))
}

// Me returns the user resolved by the bearer middleware.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(UserLocalsKey).(identity.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, ErrInvalidToken.Error())
	}
	return c.Status(http.StatusOK).JSON(newUserResponse(user))
}

func newUserResponse(u identity.User) userResponse {
	phones := make([]phonePayload, 0, len(u.Phones))
	for _, p := range u.Phones {
		phones = append(phones, phonePayload{Number: p.Number, CityCode: p.CityCode, CountryCode: p.CountryCode})
	}
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phones:    phones,
		Created:   u.CreatedAt,
		LastLogin: u.LastLoginAt,
		Token:     u.Token,
		IsActive:  u.IsActive,
	}
}

// HTTPError converts a service error into a fiber error carrying the
// client-visible detail. Internal failures keep their cause out of the body.
func HTTPError(err error) error {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		return fiber.NewError(status, ErrInternal.Error())
	}
	return fiber.NewError(status, err.Error())
}
