package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/motorly/backend/api/handler"
	"github.com/motorly/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Car    *apiHandler.CarHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, guard *middleware.Guard) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Credential lifecycle
	r.POST("/api/v1/users/signup", handlers.Auth.Signup)
	r.POST("/api/v1/users/login", handlers.Auth.Login)
	r.GET("/api/v1/users/logout", handlers.Auth.Logout)
	r.GET("/api/v1/users/checkAuth", guard.OptionalAuth(handlers.Auth.CheckAuth))
	r.POST("/api/v1/users/forgotPassword", handlers.Auth.ForgotPassword)
	r.PATCH("/api/v1/users/resetPassword/{token}", handlers.Auth.ResetPassword)
	r.POST("/api/v1/users/requestOtp", handlers.Auth.RequestOTP)
	r.POST("/api/v1/users/verifyOtp", handlers.Auth.VerifyOTP)
	r.POST("/api/v1/users/contact", handlers.Auth.Contact)

	// Protected account routes
	r.GET("/api/v1/users/profile", guard.RequireAuth(handlers.Auth.Profile))
	r.PATCH("/api/v1/users/updatePassword", guard.RequireAuth(handlers.Auth.UpdatePassword))
	r.DELETE("/api/v1/users/deleteMe", guard.RequireAuth(handlers.Auth.DeleteMe))

	// Car listings, owner-scoped
	r.GET("/api/v1/cars", guard.RequireAuth(handlers.Car.GetCars))
	r.GET("/api/v1/cars/search", guard.RequireAuth(handlers.Car.SearchCars))
	r.GET("/api/v1/cars/{id}", guard.RequireAuth(handlers.Car.GetCar))
	r.POST("/api/v1/cars", guard.RequireAuth(handlers.Car.CreateCar))
	r.PATCH("/api/v1/cars/{id}", guard.RequireAuth(handlers.Car.UpdateCar))
	r.DELETE("/api/v1/cars/{id}", guard.RequireAuth(handlers.Car.DeleteCar))

	return r
}
