package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupCollectionRoutes injects the session, catalog and collection api endpoints.
func (api *APIHandler) SetupCollectionRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/v1/auth/signin", m.public(api.SignIn))
	router.POST("/v1/auth/signout", m.private(api.SignOut))
	router.GET("/v1/collection", m.private(api.GetCollection))
	router.GET("/v1/catalog/search", m.private(api.SearchCatalog))
	router.POST("/v1/collection/books", m.private(api.AddBook))
	router.PATCH("/v1/collection/books/:id/status", m.private(api.MoveBook))
	return router
}
