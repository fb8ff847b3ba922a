package main

import (
	_ "github.com/aveldev/bookshelf-api/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains the middlewares chains to use for
// public-facing, session-protected and ops requests.
type MiddlewareMap struct {
	public  func(httprouter.Handle) httprouter.Handle
	private func(httprouter.Handle) httprouter.Handle
	ops     func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects collection and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	api.SetupCollectionRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}
