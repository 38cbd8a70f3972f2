// Package controllers holds the demo application's HTTP handlers.
package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/km-arc/go-ioc/app/models"
	"github.com/km-arc/go-ioc/app/storage"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/http/validation"
)

// userRules validate create and update payloads, Laravel-style.
var userRules = validation.Rules{
	"name":  "required|min:2|max:100",
	"email": "required|email",
}

// UserController handles the /users resource. It is resolved from the
// request scope, so its repository and unit of work are the request's own.
type UserController struct {
	users storage.UserRepository
	uow   *storage.UnitOfWork
	log   *slog.Logger
}

func NewUserController(users storage.UserRepository, uow *storage.UnitOfWork, log *slog.Logger) *UserController {
	return &UserController{users: users, uow: uow, log: log}
}

// Index lists all users. GET /users
func (c *UserController) Index(res *gohttp.Response, req *gohttp.Request) {
	users, err := c.users.List(req.Context())
	if err != nil {
		c.log.Error("listing users failed", "request_id", c.uow.ID, "error", err)
		res.ServerError()
		return
	}
	res.Success(users)
}

// Show returns one user. GET /users/{id}
func (c *UserController) Show(res *gohttp.Response, req *gohttp.Request) {
	id, ok := c.userID(res, req)
	if !ok {
		return
	}

	user, err := c.users.Find(req.Context(), id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		res.NotFound()
	case err != nil:
		c.log.Error("finding user failed", "request_id", c.uow.ID, "id", id, "error", err)
		res.ServerError()
	default:
		res.Success(user)
	}
}

// Store creates a user. POST /users
func (c *UserController) Store(res *gohttp.Response, req *gohttp.Request) {
	body, ok := c.bindUser(res, req)
	if !ok {
		return
	}

	user := &models.User{Name: body.Name, Email: body.Email}
	if err := c.users.Create(req.Context(), user); err != nil {
		c.log.Error("creating user failed", "request_id", c.uow.ID, "error", err)
		res.ServerError()
		return
	}
	c.log.Info("user created", "request_id", c.uow.ID, "id", user.ID)
	res.Created(user)
}

// Update rewrites a user's fields. PUT/PATCH /users/{id}
func (c *UserController) Update(res *gohttp.Response, req *gohttp.Request) {
	id, ok := c.userID(res, req)
	if !ok {
		return
	}
	body, ok := c.bindUser(res, req)
	if !ok {
		return
	}

	user, err := c.users.Find(req.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res.NotFound()
		return
	}
	if err != nil {
		c.log.Error("finding user failed", "request_id", c.uow.ID, "id", id, "error", err)
		res.ServerError()
		return
	}

	user.Name = body.Name
	user.Email = body.Email
	if err := c.users.Update(req.Context(), user); err != nil {
		c.log.Error("updating user failed", "request_id", c.uow.ID, "id", id, "error", err)
		res.ServerError()
		return
	}
	res.Success(user)
}

// Destroy deletes a user. DELETE /users/{id}
func (c *UserController) Destroy(res *gohttp.Response, req *gohttp.Request) {
	id, ok := c.userID(res, req)
	if !ok {
		return
	}

	if err := c.users.Delete(req.Context(), id); err != nil {
		c.log.Error("deleting user failed", "request_id", c.uow.ID, "id", id, "error", err)
		res.ServerError()
		return
	}
	res.NoContent()
}

// userPayload is the request body for Store and Update.
type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *UserController) bindUser(res *gohttp.Response, req *gohttp.Request) (userPayload, bool) {
	var body userPayload
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return body, false
	}

	v := validation.Make(map[string]string{
		"name":  body.Name,
		"email": body.Email,
	}, userRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return body, false
	}
	return body, true
}

func (c *UserController) userID(res *gohttp.Response, req *gohttp.Request) (uint, bool) {
	id, err := strconv.ParseUint(req.RouteParam("id"), 10, 64)
	if err != nil {
		res.Error(http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return uint(id), true
}
