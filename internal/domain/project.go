package domain

// Role is the permission tier derived for an authenticated identity.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
	RoleClient     Role = "client"
)

// Project is a client engagement with its membership lists. The durable
// copy lives in the content store as projects/<slug>/config.json; this
// struct is both the wire format and the in-memory view.
type Project struct {
	Slug        string   `json:"-"`
	Name        string   `json:"name"`
	Consultants []string `json:"consultants"`
	Clients     []string `json:"clients"`
}

// HasMember reports whether id appears in the named membership list.
func (p Project) HasMember(memberType, id string) bool {
	for _, m := range p.members(memberType) {
		if m == id {
			return true
		}
	}
	return false
}

func (p Project) members(memberType string) []string {
	switch memberType {
	case MemberConsultants:
		return p.Consultants
	case MemberClients:
		return p.Clients
	}
	return nil
}

// Membership list names as they appear in config.json.
const (
	MemberConsultants = "consultants"
	MemberClients     = "clients"
)

// ResolvedIdentity is the outcome of role resolution for one identity id.
// It is derived fresh on every authentication event and never stored.
type ResolvedIdentity struct {
	Role     Role
	Projects []string
}

// CanSee reports whether the identity may enter the project's
// collaboration space. Admins see every project.
func (r *ResolvedIdentity) CanSee(slug string) bool {
	if r == nil {
		return false
	}
	if r.Role == RoleAdmin {
		return true
	}
	for _, p := range r.Projects {
		if p == slug {
			return true
		}
	}
	return false
}
