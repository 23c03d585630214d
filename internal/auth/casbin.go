package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// InitEnforcer creates a Casbin enforcer with the embedded RBAC model and
// policies derived from the role definitions. Each role holds only its own
// grants; inheritance is expressed through g so super_admin reaches every
// stadium_admin and hostess permission.
//
// The policy set is built once and never modified afterwards.
func InitEnforcer() (casbin.IEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	for _, role := range AllRoles() {
		for _, perm := range role.grants() {
			if _, err := enforcer.AddPolicy(role.String(), perm); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, perm, err)
			}
		}
		if parent, ok := role.inherits(); ok {
			if _, err := enforcer.AddGroupingPolicy(role.String(), parent.String()); err != nil {
				return nil, fmt.Errorf("add role inheritance %s -> %s: %w", role, parent, err)
			}
		}
	}

	return enforcer, nil
}
