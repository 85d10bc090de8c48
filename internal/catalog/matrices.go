package catalog

import "admin-rbac/internal/domain"

var (
	read = domain.Grant(domain.ActionRead)
	crud = domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete)
)

// Each matrix is spelled out in full rather than derived from the role below
// it, so a repair always restores exactly what is written here.
var defaultMatrices = map[Key]domain.Matrix{
	Viewer: {
		domain.ResourceDashboard:     read,
		domain.ResourceBots:          read,
		domain.ResourceAgents:        read,
		domain.ResourceAnalytics:     read,
		domain.ResourceKnowledgeBase: read,
		domain.ResourceHandoffs:      read,
		domain.ResourceChats:         read,
		domain.ResourceTickets:       read,
	},
	Agent: {
		domain.ResourceDashboard:     read,
		domain.ResourceBots:          read,
		domain.ResourceAnalytics:     read,
		domain.ResourceKnowledgeBase: read,
		domain.ResourceHandoffs:      domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceChats:         domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceTickets:       domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
	},
	Operator: {
		domain.ResourceDashboard:     read,
		domain.ResourceUsers:         read,
		domain.ResourceBots:          domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionPublish),
		domain.ResourceAgents:        domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceAnalytics:     domain.Grant(domain.ActionRead, domain.ActionExport),
		domain.ResourceKnowledgeBase: domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionPublish),
		domain.ResourceHandoffs:      domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceChats:         domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign, domain.ActionExport),
		domain.ResourceTickets:       domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceIntegrations:  read,
		domain.ResourceLogs:          read,
	},
	Manager: {
		domain.ResourceDashboard:     read,
		domain.ResourceUsers:         domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate),
		domain.ResourceBots:          crud | domain.Grant(domain.ActionPublish),
		domain.ResourceAgents:        crud | domain.Grant(domain.ActionManage, domain.ActionAssign),
		domain.ResourceAnalytics:     domain.Grant(domain.ActionRead, domain.ActionExport, domain.ActionManage),
		domain.ResourceKnowledgeBase: crud | domain.Grant(domain.ActionPublish),
		domain.ResourceSettings:      read,
		domain.ResourceHandoffs:      domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionAssign, domain.ActionManage),
		domain.ResourceChats:         domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionDelete, domain.ActionAssign, domain.ActionExport),
		domain.ResourceTickets:       crud | domain.Grant(domain.ActionAssign, domain.ActionExport),
		domain.ResourceRoles:         read,
		domain.ResourceIntegrations:  domain.Grant(domain.ActionRead, domain.ActionUpdate),
		domain.ResourceLogs:          read,
	},
	Admin: {
		domain.ResourceDashboard:     domain.Grant(domain.ActionRead, domain.ActionManage),
		domain.ResourceUsers:         crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionAssign),
		domain.ResourceBots:          crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionPublish),
		domain.ResourceAgents:        crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionAssign),
		domain.ResourceAnalytics:     domain.Grant(domain.ActionRead, domain.ActionExport, domain.ActionManage),
		domain.ResourceKnowledgeBase: crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionPublish),
		domain.ResourceSettings:      domain.Grant(domain.ActionRead, domain.ActionUpdate, domain.ActionManage),
		domain.ResourceHandoffs:      crud | domain.Grant(domain.ActionManage, domain.ActionAssign),
		domain.ResourceChats:         crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionAssign),
		domain.ResourceTickets:       crud | domain.Grant(domain.ActionManage, domain.ActionExport, domain.ActionAssign),
		domain.ResourceRoles:         domain.Grant(domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionAssign),
		domain.ResourceIntegrations:  crud | domain.Grant(domain.ActionManage),
		domain.ResourceLogs:          domain.Grant(domain.ActionRead, domain.ActionExport),
	},
	SuperAdministrator: {
		domain.ResourceDashboard:     domain.AllActions,
		domain.ResourceUsers:         domain.AllActions,
		domain.ResourceBots:          domain.AllActions,
		domain.ResourceAgents:        domain.AllActions,
		domain.ResourceAnalytics:     domain.AllActions,
		domain.ResourceKnowledgeBase: domain.AllActions,
		domain.ResourceSettings:      domain.AllActions,
		domain.ResourceHandoffs:      domain.AllActions,
		domain.ResourceChats:         domain.AllActions,
		domain.ResourceTickets:       domain.AllActions,
		domain.ResourceRoles:         domain.AllActions,
		domain.ResourceIntegrations:  domain.AllActions,
		domain.ResourceLogs:          domain.AllActions,
	},
}
