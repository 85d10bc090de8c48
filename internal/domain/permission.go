package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Resource string

const (
	ResourceDashboard     Resource = "dashboard"
	ResourceUsers         Resource = "users"
	ResourceBots          Resource = "bots"
	ResourceAgents        Resource = "agents"
	ResourceAnalytics     Resource = "analytics"
	ResourceKnowledgeBase Resource = "knowledgeBase"
	ResourceSettings      Resource = "settings"
	ResourceHandoffs      Resource = "handoffs"
	ResourceChats         Resource = "chats"
	ResourceTickets       Resource = "tickets"
	ResourceRoles         Resource = "roles"
	ResourceIntegrations  Resource = "integrations"
	ResourceLogs          Resource = "logs"
)

// Resources lists every resource in declaration order.
var Resources = []Resource{
	ResourceDashboard, ResourceUsers, ResourceBots, ResourceAgents, ResourceAnalytics,
	ResourceKnowledgeBase, ResourceSettings, ResourceHandoffs, ResourceChats,
	ResourceTickets, ResourceRoles, ResourceIntegrations, ResourceLogs,
}

func ParseResource(s string) (Resource, bool) {
	for _, r := range Resources {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Action is a single permission flag. Actions combine into an Actions set.
type Action uint16

const (
	ActionCreate Action = 1 << iota
	ActionRead
	ActionUpdate
	ActionDelete
	ActionManage
	ActionExport
	ActionAssign
	ActionPublish
	ActionSystem
)

var actionNames = []struct {
	action Action
	name   string
}{
	{ActionCreate, "create"},
	{ActionRead, "read"},
	{ActionUpdate, "update"},
	{ActionDelete, "delete"},
	{ActionManage, "manage"},
	{ActionExport, "export"},
	{ActionAssign, "assign"},
	{ActionPublish, "publish"},
	{ActionSystem, "system"},
}

func (a Action) String() string {
	for _, n := range actionNames {
		if n.action == a {
			return n.name
		}
	}
	return fmt.Sprintf("Action(%d)", uint16(a))
}

// ParseAction accepts the declared action names; "view" is read.
func ParseAction(s string) (Action, bool) {
	if s == "view" {
		return ActionRead, true
	}
	for _, n := range actionNames {
		if n.name == s {
			return n.action, true
		}
	}
	return 0, false
}

// Actions is the set of actions granted on one resource.
type Actions uint16

// AllActions grants every declared action.
const AllActions = Actions(ActionCreate | ActionRead | ActionUpdate | ActionDelete |
	ActionManage | ActionExport | ActionAssign | ActionPublish | ActionSystem)

func Grant(actions ...Action) Actions {
	var set Actions
	for _, a := range actions {
		set |= Actions(a)
	}
	return set
}

func (s Actions) Has(a Action) bool {
	return a != 0 && Actions(a)&s == Actions(a)
}

func (s Actions) Names() []string {
	names := make([]string, 0, len(actionNames))
	for _, n := range actionNames {
		if s.Has(n.action) {
			names = append(names, n.name)
		}
	}
	return names
}

// Matrix maps resources to the actions permitted on them.
type Matrix map[Resource]Actions

// NewMatrix builds a matrix from loosely typed data, rejecting resource or
// action names outside the declared enumerations.
func NewMatrix(raw map[string][]string) (Matrix, error) {
	m := make(Matrix, len(raw))
	for key, names := range raw {
		res, ok := ParseResource(key)
		if !ok {
			return nil, fmt.Errorf("%w: unknown resource %q", ErrInvalidInput, key)
		}
		var set Actions
		for _, name := range names {
			act, ok := ParseAction(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("%w: unknown action %q on %s", ErrInvalidInput, name, key)
			}
			set |= Actions(act)
		}
		if set != 0 {
			m[res] = set
		}
	}
	return m, nil
}

// SalvageMatrix keeps the entries NewMatrix would accept and reports whether
// anything was dropped.
func SalvageMatrix(raw map[string][]string) (Matrix, bool) {
	m := make(Matrix, len(raw))
	dropped := false
	for key, names := range raw {
		res, ok := ParseResource(key)
		if !ok {
			dropped = true
			continue
		}
		var set Actions
		for _, name := range names {
			act, ok := ParseAction(strings.TrimSpace(name))
			if !ok {
				dropped = true
				continue
			}
			set |= Actions(act)
		}
		if set != 0 {
			m[res] = set
		}
	}
	return m, dropped
}

func (m Matrix) Allows(res Resource, act Action) bool {
	return m[res].Has(act)
}

// Raw returns the matrix as resource name to action names, omitting empty
// entries.
func (m Matrix) Raw() map[string][]string {
	out := make(map[string][]string, len(m))
	for res, set := range m {
		if set == 0 {
			continue
		}
		out[string(res)] = set.Names()
	}
	return out
}

func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for res, set := range m {
		out[res] = set
	}
	return out
}

// IsEmpty reports whether no action is granted anywhere.
func (m Matrix) IsEmpty() bool {
	for _, set := range m {
		if set != 0 {
			return false
		}
	}
	return true
}

// Equal compares granted actions; a resource with no actions equals an
// absent one.
func (m Matrix) Equal(other Matrix) bool {
	for _, res := range Resources {
		if m[res] != other[res] {
			return false
		}
	}
	return true
}

func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Raw())
}

func (m *Matrix) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMatrix(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
