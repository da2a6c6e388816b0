package permissions

// policy is the full access matrix. Every (resource, action, role)
// combination has an explicit cell; validatePolicy rejects the table at
// init when a cell is missing, because a silently absent cell would
// degrade to "no access" without signalling the policy gap.
var policy = map[Resource]map[Action]map[Role]AccessLevel{
	ResourceUsers: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwnProfile,
			RoleUser:       LevelOwnProfile,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelSelfRegister,
		},
		ActionEdit: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwnProfile,
			RoleUser:       LevelOwnProfile,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwnProfile,
			RoleUser:       LevelOwnProfile,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceVendors: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelSelfRegister,
			RoleUser:       LevelNo,
		},
		ActionEdit: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceProjects: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelTeam,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionEdit: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelTeam,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelOwn,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelTeam,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelOwn,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceVendorDocuments: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionEdit: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceTickets: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelYes,
		},
		ActionEdit: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelOwn,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
	},

	ResourceTicketDocuments: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionEdit: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelAssigned,
			RoleUser:       LevelOwn,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelNo,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelNo,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceBills: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionEdit: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},

	ResourceAdHocPayments: {
		ActionView: {
			RoleAdmin:      LevelAll,
			RoleSupervisor: LevelTeam,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelOwn,
			RoleUser:       LevelNo,
		},
		ActionCreate: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelYes,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionEdit: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionDelete: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionUpload: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionApprove: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionPay: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
		ActionClose: {
			RoleAdmin:      LevelYes,
			RoleSupervisor: LevelNo,
			RoleFinance:    LevelYes,
			RoleVendor:     LevelNo,
			RoleUser:       LevelNo,
		},
	},
}
