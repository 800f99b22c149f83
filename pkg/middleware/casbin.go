package middleware

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/auth"
)

// rbacModel grants a request when the caller's role, directly or through the
// authenticated group, holds a policy for the route template and method.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

//go:embed rbac_policy.csv
var rbacPolicy string

// NewEnforcer builds the role gate from the embedded policy table.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, errors.Wrap(err, "loading rbac model")
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(rbacPolicy))
	if err != nil {
		return nil, errors.Wrap(err, "loading rbac policy")
	}
	return enforcer, nil
}

// RoleGate lets a request through only when the policy allows the caller's
// role on the matched route. It must run after the JWT middleware.
type RoleGate struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

func NewRoleGate(enforcer *casbin.Enforcer, logger *zap.Logger) *RoleGate {
	return &RoleGate{enforcer: enforcer, logger: logger.Named("rbac")}
}

func (g *RoleGate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(auth.ContextKey).(*auth.JWTClaims)
		if !ok || claims == nil {
			return apperr.Unauthorized("Missing token")
		}

		role, obj, act := claims.Role.String(), c.Path(), c.Request().Method
		allowed, err := g.enforcer.Enforce(role, obj, act)
		if err != nil {
			return errors.Wrap(err, "enforcing rbac policy")
		}
		if !allowed {
			g.logger.Debug("access denied", zap.String("role", role), zap.String("route", obj), zap.String("method", act))
			return apperr.Forbidden("Access denied")
		}
		return next(c)
	}
}
