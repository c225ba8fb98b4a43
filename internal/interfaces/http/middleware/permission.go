package middleware

import (
	"errors"
	"net/http"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorizer decides whether a principal may use a permission
type Authorizer interface {
	Authorize(p *identity.Principal, perm identity.Permission) error
}

// PermissionGate builds per-route permission middleware around one policy
type PermissionGate struct {
	policy Authorizer
	logger *zap.Logger
}

// NewPermissionGate creates a gate. A nil logger disables logging.
func NewPermissionGate(policy Authorizer, logger *zap.Logger) *PermissionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGate{policy: policy, logger: logger}
}

// Require returns middleware that rejects the request unless the
// authenticated principal holds perm. It must run after JWTAuth.
func (g *PermissionGate) Require(perm identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if err := g.policy.Authorize(principal, perm); err != nil {
			g.deny(c, principal, perm, err)
			return
		}
		c.Next()
	}
}

// PermissionResolver picks the permission a request needs from its content
type PermissionResolver func(c *gin.Context) (identity.Permission, error)

// RequireFunc is Require for routes whose permission depends on the request,
// such as a body field. A resolver error is answered as invalid input.
func (g *PermissionGate) RequireFunc(resolve PermissionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		perm, err := resolve(c)
		if err != nil {
			message := "Invalid request"
			var de *shared.DomainError
			if errors.As(err, &de) {
				message = de.Message
			}
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, message)
			return
		}
		principal := GetPrincipal(c)
		if err := g.policy.Authorize(principal, perm); err != nil {
			g.deny(c, principal, perm, err)
			return
		}
		c.Next()
	}
}

func (g *PermissionGate) deny(c *gin.Context, p *identity.Principal, perm identity.Permission, err error) {
	fields := []zap.Field{
		zap.String("permission", string(perm)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	if p != nil {
		fields = append(fields, zap.String("user_id", p.UserID.String()), zap.String("role", string(p.Role)))
	}
	g.logger.Warn("Permission denied", fields...)

	if errors.Is(err, shared.ErrUnauthorized) {
		abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	message := "Access to this resource is forbidden"
	var de *shared.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}
