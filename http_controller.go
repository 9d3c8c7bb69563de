package devconnect

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

type AuthControllerRoutes struct {
	Register string
	Login    string
	Me       string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Routes *AuthControllerRoutes
	Auther Authenticator
	Gate   fiber.Handler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewAuthController(auther Authenticator, gate fiber.Handler, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Auther: auther,
		Gate:   gate,
		Routes: &AuthControllerRoutes{
			Register: "/api/users",
			Login:    "/api/auth",
			Me:       "/api/auth",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Gate == nil {
		panic("Missing auth gate in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts registration, login and the identity endpoint
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Post(controller.Routes.Register, controller.RegistrationCreate).Name("users.register")
	app.Post(controller.Routes.Login, controller.LoginPost).Name("auth.login")
	app.Get(controller.Routes.Me, controller.Gate, controller.CurrentAccount).Name("auth.me")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(map[string]string{"name": payload.Name, "email": payload.Email}))
		fmt.Println("============================")
	}

	token, err := a.Auther.Register(c.UserContext(), RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return WriteError(c, err, a.Logger)
	}

	return c.JSON(tokenResponse{Token: token})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(map[string]string{"email": payload.Email}))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return WriteError(c, err, a.Logger)
	}

	return c.JSON(tokenResponse{Token: token})
}

func (a *AuthController) CurrentAccount(c *fiber.Ctx) error {
	account, err := a.Auther.CurrentAccount(c.UserContext())
	if err != nil {
		return WriteError(c, err, a.Logger)
	}
	return c.JSON(account)
}

func (a *AuthController) badPayload(c *fiber.Ctx, err error) error {
	a.Logger.Debug("Unable to parse payload", "path", c.Path(), "error", err)
	return WriteError(c, NewPublicError(fiber.StatusBadRequest, "Invalid request payload."), a.Logger)
}
