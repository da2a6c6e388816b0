package permissions

import "fmt"

func init() {
	if err := validatePolicy(); err != nil {
		panic(err)
	}
}

// validatePolicy checks that every (resource, action, role) combination
// has an explicit cell. An incomplete table is a programming error, not
// a runtime condition: CanPerform would fail closed on the gap and the
// missing policy decision would go unnoticed.
func validatePolicy() error {
	for _, resource := range Resources() {
		actions, ok := policy[resource]
		if !ok {
			return fmt.Errorf("permissions: resource %q missing from policy", resource)
		}
		for _, action := range Actions() {
			roles, ok := actions[action]
			if !ok {
				return fmt.Errorf("permissions: cell %s/%s missing from policy", resource, action)
			}
			for _, role := range Roles() {
				level, ok := roles[role]
				if !ok {
					return fmt.Errorf("permissions: cell %s/%s/%s missing from policy", resource, action, role)
				}
				switch level {
				case LevelAll, LevelYes, LevelTeam, LevelOwn, LevelAssigned, LevelSelfRegister, LevelOwnProfile, LevelNo:
				default:
					return fmt.Errorf("permissions: cell %s/%s/%s has unknown level %q", resource, action, role, level)
				}
			}
		}
	}
	return nil
}

// CanPerform reports whether role may perform action on resource given
// the caller-supplied relationship context. Unknown cells fail closed:
// an unmodeled combination must never silently grant access.
func CanPerform(action Action, resource Resource, role Role, ctx Context) bool {
	actions, ok := policy[resource]
	if !ok {
		return false
	}
	roles, ok := actions[action]
	if !ok {
		return false
	}
	level, ok := roles[role]
	if !ok {
		return false
	}
	switch level {
	case LevelAll, LevelYes, LevelSelfRegister:
		return true
	case LevelTeam:
		return ctx.IsTeamMember
	case LevelOwn:
		return ctx.IsOwner
	case LevelAssigned:
		return ctx.IsAssigned
	case LevelOwnProfile:
		return ctx.IsOwnProfile
	default:
		return false
	}
}

// Level returns the raw access level for a policy cell, for callers
// that scope result sets themselves and only need to know whether the
// role participates at all. Unknown cells report LevelNo.
func Level(action Action, resource Resource, role Role) AccessLevel {
	if level, ok := policy[resource][action][role]; ok {
		return level
	}
	return LevelNo
}

// CanView reports whether role may view resource.
func CanView(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionView, resource, role, ctx)
}

// CanCreate reports whether role may create resource.
func CanCreate(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionCreate, resource, role, ctx)
}

// CanEdit reports whether role may edit resource.
func CanEdit(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionEdit, resource, role, ctx)
}

// CanDelete reports whether role may delete resource.
func CanDelete(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionDelete, resource, role, ctx)
}

// CanUpload reports whether role may upload to resource.
func CanUpload(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionUpload, resource, role, ctx)
}

// CanApprove reports whether role may approve resource.
func CanApprove(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionApprove, resource, role, ctx)
}

// CanPay reports whether role may pay resource.
func CanPay(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionPay, resource, role, ctx)
}

// CanClose reports whether role may close resource.
func CanClose(resource Resource, role Role, ctx Context) bool {
	return CanPerform(ActionClose, resource, role, ctx)
}
