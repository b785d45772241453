package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/motorly/backend/api/transport"
	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/internal/middleware"
	"github.com/motorly/backend/pkg/httpcontext"
	"github.com/motorly/backend/repository"
	carUC "github.com/motorly/backend/usecase/car"
)

type CarHandler struct {
	baseHandler
	uc *carUC.UseCase
}

func NewCarHandler(uc *carUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CarHandler {
	return &CarHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the caller's cars
// @Tags cars
// @Router /api/v1/cars [get]
func (h *CarHandler) GetCars(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}

	filter := repository.CarFilter{
		UserID: user.ID,
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cars, err := h.uc.ListCars(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cars)
}

// @Summary Search the caller's cars by substring
// @Tags cars
// @Router /api/v1/cars/search [get]
func (h *CarHandler) SearchCars(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}

	filter := repository.CarFilter{
		UserID: user.ID,
		Query:  string(ctx.QueryArgs().Peek("q")),
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cars, err := h.uc.ListCars(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cars)
}

// @Summary Get one of the caller's cars
// @Tags cars
// @Router /api/v1/cars/{id} [get]
func (h *CarHandler) GetCar(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	car, err := h.uc.GetCar(stdCtx, user.ID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, car)
}

// @Summary Create a car
// @Tags cars
// @Router /api/v1/cars [post]
func (h *CarHandler) CreateCar(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}

	car, ok := h.parseCar(ctx, user.ID)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateCar(stdCtx, car)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update a car
// @Tags cars
// @Router /api/v1/cars/{id} [patch]
func (h *CarHandler) UpdateCar(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}

	car, ok := h.parseCar(ctx, user.ID)
	if !ok {
		return
	}
	car.ID, _ = ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateCar(stdCtx, car)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete a car
// @Tags cars
// @Router /api/v1/cars/{id} [delete]
func (h *CarHandler) DeleteCar(ctx *fasthttp.RequestCtx) {
	user := h.owner(ctx)
	if user == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteCar(stdCtx, user.ID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h *CarHandler) owner(ctx *fasthttp.RequestCtx) *domain.User {
	user := middleware.UserFrom(ctx)
	if user == nil {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthenticated), domain.ErrUnauthenticated.Message, nil))
		return nil
	}
	return user
}

func (h *CarHandler) parseCar(ctx *fasthttp.RequestCtx, userID string) (*domain.Car, bool) {
	var req transport.CarRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return nil, false
	}
	return &domain.Car{
		ID:          req.ID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Images:      req.Images,
	}, true
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}
