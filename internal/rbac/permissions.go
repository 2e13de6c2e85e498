package rbac

type Resource string

const (
	ResourceTasks    Resource = "tasks"
	ResourceComments Resource = "comments"
	ResourceUsers    Resource = "users"
	ResourceAdmin    Resource = "admin"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var crud = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// Grant allows role to perform each of Actions on Resource.
type Grant struct {
	Role     string
	Resource Resource
	Actions  []Action
}

// DefaultGrants is the permission table loaded at process start.
var DefaultGrants = []Grant{
	{Role: RoleOwner, Resource: ResourceTasks, Actions: crud},
	{Role: RoleOwner, Resource: ResourceComments, Actions: crud},
	{Role: RoleOwner, Resource: ResourceUsers, Actions: crud},
	{Role: RoleOwner, Resource: ResourceAdmin, Actions: crud},

	{Role: RoleAdmin, Resource: ResourceTasks, Actions: crud},
	{Role: RoleAdmin, Resource: ResourceComments, Actions: crud},
	{Role: RoleAdmin, Resource: ResourceUsers, Actions: []Action{ActionRead, ActionUpdate, ActionDelete}},
	{Role: RoleAdmin, Resource: ResourceAdmin, Actions: []Action{ActionRead, ActionUpdate}},

	{Role: RoleMember, Resource: ResourceTasks, Actions: []Action{ActionCreate, ActionRead}},
	{Role: RoleMember, Resource: ResourceComments, Actions: []Action{ActionCreate, ActionRead}},
}

// ownable lists the (resource, action) pairs where the owner of a specific record
// may act even when the table denies. Admin resources have no owner.
// Each entry is backed by a route that checks the record's owner.
var ownable = map[Resource]map[Action]bool{
	ResourceTasks:    {ActionUpdate: true, ActionDelete: true},
	ResourceComments: {ActionDelete: true},
	ResourceUsers:    {ActionRead: true},
}

type permKey struct {
	role     string
	resource Resource
	action   Action
}

// Policy is an immutable (role, resource, action) table. Anything not granted is denied.
type Policy struct {
	allowed map[permKey]struct{}
}

func NewPolicy(grants []Grant) *Policy {
	p := &Policy{allowed: make(map[permKey]struct{})}
	for _, g := range grants {
		for _, a := range g.Actions {
			p.allowed[permKey{role: g.Role, resource: g.Resource, action: a}] = struct{}{}
		}
	}
	return p
}

func DefaultPolicy() *Policy { return NewPolicy(DefaultGrants) }

// Check reports whether role may perform action on resource.
func (p *Policy) Check(role string, resource Resource, action Action) bool {
	if p == nil {
		return false
	}
	_, ok := p.allowed[permKey{role: role, resource: resource, action: action}]
	return ok
}

// OwnershipApplies reports whether the ownership override is defined for the pair.
func OwnershipApplies(resource Resource, action Action) bool {
	return ownable[resource][action]
}
