package permissions

// Role classifies an actor. Roles are assigned administratively and are
// immutable for the lifetime of a session.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleFinance    Role = "finance"
	RoleVendor     Role = "vendor"
	RoleUser       Role = "user"
)

// Resource tags the kind of object a decision is about.
type Resource string

const (
	ResourceUsers           Resource = "users"
	ResourceVendors         Resource = "vendors"
	ResourceProjects        Resource = "projects"
	ResourceVendorDocuments Resource = "vendorDocuments"
	ResourceTickets         Resource = "tickets"
	ResourceTicketDocuments Resource = "ticketDocuments"
	ResourceBills           Resource = "bills"
	ResourceAdHocPayments   Resource = "adHocPayments"
)

// Action is the verb being attempted on a resource.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionUpload  Action = "upload"
	ActionApprove Action = "approve"
	ActionPay     Action = "pay"
	ActionClose   Action = "close"
)

// AccessLevel is the policy value resolved for a (resource, action, role)
// cell. Unconditional levels grant regardless of context; the gated
// levels grant only when the matching relationship flag is set.
type AccessLevel string

const (
	LevelAll          AccessLevel = "all"
	LevelYes          AccessLevel = "yes"
	LevelTeam         AccessLevel = "team"
	LevelOwn          AccessLevel = "own"
	LevelAssigned     AccessLevel = "assigned"
	LevelSelfRegister AccessLevel = "self-register"
	LevelOwnProfile   AccessLevel = "own-profile"
	LevelNo           AccessLevel = "no"
)

// Context carries the relationship flags the caller computed from the
// data it is about to act on. The engine never derives these itself:
// it performs no lookups and no I/O. A zero Context asserts nothing.
type Context struct {
	IsOwner      bool `json:"isOwner,omitempty"`
	IsTeamMember bool `json:"isTeamMember,omitempty"`
	IsAssigned   bool `json:"isAssigned,omitempty"`
	IsOwnProfile bool `json:"isOwnProfile,omitempty"`
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSupervisor, RoleFinance, RoleVendor, RoleUser}
}

// Resources lists every known resource.
func Resources() []Resource {
	return []Resource{
		ResourceUsers,
		ResourceVendors,
		ResourceProjects,
		ResourceVendorDocuments,
		ResourceTickets,
		ResourceTicketDocuments,
		ResourceBills,
		ResourceAdHocPayments,
	}
}

// Actions lists every known action.
func Actions() []Action {
	return []Action{
		ActionView,
		ActionCreate,
		ActionEdit,
		ActionDelete,
		ActionUpload,
		ActionApprove,
		ActionPay,
		ActionClose,
	}
}
