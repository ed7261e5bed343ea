// Package access derives permission tiers from identity ids and decides
// which portal paths a resolved identity may enter.
package access

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

const projectsDir = "content/projects"

// Resolver maps an identity id to a role plus its visible project set.
// It holds no cache: every Resolve call re-reads the membership records,
// so a membership edit is effective on the next authentication event.
type Resolver struct {
	store         ports.ContentStore
	adminIDs      []string
	consultantIDs []string
	logger        *slog.Logger
}

// NewResolver wires the content store that owns the project records.
func NewResolver(store ports.ContentStore, adminIDs, consultantIDs []string, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:         store,
		adminIDs:      adminIDs,
		consultantIDs: consultantIDs,
		logger:        logger,
	}
}

// Resolve returns the most privileged match for identityID, or nil when
// the id appears in no allowlist and no project membership.
func (r *Resolver) Resolve(ctx context.Context, identityID string) (*domain.ResolvedIdentity, error) {
	if identityID == "" {
		return nil, nil
	}

	if contains(r.adminIDs, identityID) {
		return &domain.ResolvedIdentity{Role: domain.RoleAdmin, Projects: []string{}}, nil
	}

	if contains(r.consultantIDs, identityID) {
		// An unassigned consultant still authenticates with an empty set.
		return &domain.ResolvedIdentity{
			Role:     domain.RoleConsultant,
			Projects: r.projectsForMember(ctx, identityID, domain.MemberConsultants),
		}, nil
	}

	if projects := r.projectsForMember(ctx, identityID, domain.MemberClients); len(projects) > 0 {
		return &domain.ResolvedIdentity{Role: domain.RoleClient, Projects: projects}, nil
	}

	return nil, nil
}

// projectsForMember scans every project record for the given membership
// list. A record that fails to read or parse is skipped so one corrupt
// file cannot block resolution for unrelated identities.
func (r *Resolver) projectsForMember(ctx context.Context, identityID, memberType string) []string {
	entries, err := r.store.List(ctx, projectsDir)
	if err != nil {
		r.warn("list projects", "error", err)
		return []string{}
	}

	matched := []string{}
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		project, err := r.loadProject(ctx, entry.Name)
		if err != nil {
			r.warn("skip project record", "slug", entry.Name, "error", err)
			continue
		}
		if project.HasMember(memberType, identityID) {
			matched = append(matched, entry.Name)
		}
	}
	return matched
}

func (r *Resolver) loadProject(ctx context.Context, slug string) (domain.Project, error) {
	doc, err := r.store.Read(ctx, projectsDir+"/"+slug+"/config.json")
	if err != nil {
		return domain.Project{}, err
	}

	var project domain.Project
	if err := json.Unmarshal([]byte(doc.Body), &project); err != nil {
		return domain.Project{}, err
	}
	project.Slug = slug
	return project, nil
}

func (r *Resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
