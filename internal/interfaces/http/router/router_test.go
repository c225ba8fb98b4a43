package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	assert.Len(t, r.registrars, 1)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("orders", "/orders")
		assert.Equal(t, "orders", g.Name())
		assert.Equal(t, "/orders", g.Prefix())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("items", "/items")
		for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
			method := m
			g.handle(method, "", []gin.HandlerFunc{func(c *gin.Context) { c.String(http.StatusOK, method) }})
		}
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
			w := serve(engine, m, "/api/v1/items")
			assert.Equal(t, http.StatusOK, w.Code, m)
			assert.Equal(t, m, w.Body.String())
		}
	})

	t.Run("group middleware runs before routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("guarded", "/guarded").
			Use(func(c *gin.Context) {
				c.Header("X-Guard", "yes")
				c.Next()
			}).
			GET("", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group(""))

		w := serve(engine, http.MethodGet, "/guarded")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Guard"))
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		calls := 0
		parent := NewDomainGroup("catalog", "/catalog").Use(func(c *gin.Context) {
			calls++
			c.Next()
		})
		parent.Group("products", "/products").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		parent.Group("zones", "/zones").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		parent.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/catalog/products").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/catalog/zones").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("sibling groups keep middleware apart", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)
		r.Register(NewDomainGroup("locked", "/locked").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }).
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) }))
		r.Register(NewDomainGroup("open", "/open").
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) }))
		r.Setup()

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/locked").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/open").Code)
	})
}
