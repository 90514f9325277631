package router

import (
	"abpulse/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler, authRequired echo.MiddlewareFunc) {
	auth := api.Group("/auth")

	auth.POST("/login", handler.Login)
	auth.POST("/logout", handler.Logout, authRequired)
}

func SetupTestRoutes(api *echo.Group, handler *rest.TestHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	tests := api.Group("/tests", authRequired, adminOnly)

	tests.GET("", handler.ListTests)
	tests.POST("", handler.CreateTest)
	tests.GET("/:id", handler.GetTest)
	tests.PUT("/:id", handler.UpdateTest)
	tests.DELETE("/:id", handler.DeleteTest)
	tests.PATCH("/:id/status", handler.ChangeStatus)
}

func SetupVariantRoutes(api *echo.Group, handler *rest.VariantHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	variants := api.Group("/tests/:testId/variants", authRequired, adminOnly)

	variants.GET("", handler.ListVariants)
	variants.POST("", handler.CreateVariant)
	variants.PUT("/:id", handler.UpdateVariant)
	variants.DELETE("/:id", handler.DeleteVariant)
}

func SetupResultsRoutes(api *echo.Group, handler *rest.ResultsHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	api.GET("/tests/:id/results", handler.GetResults, authRequired, adminOnly)
}

// SetTrackRoutes are the public beacon endpoints hit by the client snippet.
func SetTrackRoutes(api *echo.Group, handler *rest.TrackHandler) {
	track := api.Group("/track")

	track.POST("/impression", handler.Impression)
	track.POST("/conversion", handler.Conversion)
}
