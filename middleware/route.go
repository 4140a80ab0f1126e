package middleware

import (
	midsec "ChatHub/middleware/security"
	sec "ChatHub/tools/security"

	"github.com/gin-gonic/gin"
)

type RouteOpt struct {
	IsAuth bool
}

// Router wraps route registration so authenticated routes pick up the
// bearer middleware without every call site repeating it.
type Router struct {
	verifier *sec.TokenVerifier
}

func NewRouter(verifier *sec.TokenVerifier) *Router {
	return &Router{verifier: verifier}
}

func (rt *Router) POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(rt.verifier), handler)
	} else {
		r.POST(path, handler)
	}
}

func (rt *Router) GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(rt.verifier), handler)
	} else {
		r.GET(path, handler)
	}
}
