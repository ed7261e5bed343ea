package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// Membership edit actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Workspace exposes the operator-triggered operations: project and
// membership administration, collaboration posts, and draft approval.
// This is the layer that enforces roles; the store below stays policy-free.
type Workspace struct {
	store     ports.ContentStore
	publisher *Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewWorkspace wires the content store and the approval publisher.
func NewWorkspace(store ports.ContentStore, publisher *Publisher, logger *slog.Logger) *Workspace {
	return &Workspace{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// CreateProject registers a new engagement with empty membership lists.
// Admin only.
func (w *Workspace) CreateProject(ctx context.Context, identity *domain.ResolvedIdentity, name, slug string) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if name == "" || !keyExpr.MatchString(slug) {
		return fmt.Errorf("project %q/%q: %w", name, slug, domain.ErrInvalidRequest)
	}

	project := domain.Project{Name: name, Consultants: []string{}, Clients: []string{}}
	raw, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	if _, err := w.store.Create(ctx, projectConfigPath(slug), string(raw)); err != nil {
		return fmt.Errorf("create project %s: %w", slug, err)
	}
	return nil
}

// UpdateMembers adds or removes one id from a project membership list.
// Admin only. The config is re-read for a fresh version token, so a
// concurrent edit surfaces as a conflict.
func (w *Workspace) UpdateMembers(ctx context.Context, identity *domain.ResolvedIdentity, slug, memberType, action, memberID string) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if !keyExpr.MatchString(slug) {
		return fmt.Errorf("slug %q: %w", slug, domain.ErrInvalidRequest)
	}
	if memberType != domain.MemberConsultants && memberType != domain.MemberClients {
		return fmt.Errorf("member type %q: %w", memberType, domain.ErrInvalidRequest)
	}
	if action != ActionAdd && action != ActionRemove {
		return fmt.Errorf("action %q: %w", action, domain.ErrInvalidRequest)
	}
	if memberID == "" {
		return fmt.Errorf("empty member id: %w", domain.ErrInvalidRequest)
	}

	doc, err := w.store.Read(ctx, projectConfigPath(slug))
	if err != nil {
		return fmt.Errorf("read project %s: %w", slug, err)
	}

	var project domain.Project
	if err := json.Unmarshal([]byte(doc.Body), &project); err != nil {
		return fmt.Errorf("parse project %s: %w", slug, err)
	}

	switch memberType {
	case domain.MemberConsultants:
		project.Consultants = applyMemberAction(project.Consultants, action, memberID)
	case domain.MemberClients:
		project.Clients = applyMemberAction(project.Clients, action, memberID)
	}

	raw, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	if _, err := w.store.Update(ctx, projectConfigPath(slug), string(raw), doc.Version); err != nil {
		return fmt.Errorf("update project %s: %w", slug, err)
	}

	w.info("membership updated", "project", slug, "type", memberType, "action", action)
	return nil
}

// CreatePost writes a collaboration note into a project space. Admins may
// post anywhere; consultants only into projects they are assigned to.
func (w *Workspace) CreatePost(ctx context.Context, identity *domain.ResolvedIdentity, author, slug, title, body string) (string, error) {
	if identity == nil {
		return "", domain.ErrForbidden
	}
	switch identity.Role {
	case domain.RoleAdmin:
	case domain.RoleConsultant:
		if !identity.CanSee(slug) {
			return "", fmt.Errorf("project %s: %w", slug, domain.ErrForbidden)
		}
	default:
		return "", domain.ErrForbidden
	}

	if !keyExpr.MatchString(slug) {
		return "", fmt.Errorf("slug %q: %w", slug, domain.ErrInvalidRequest)
	}
	if title == "" || body == "" {
		return "", fmt.Errorf("title and body required: %w", domain.ErrInvalidRequest)
	}

	date := w.now().UTC().Format("2006-01-02")
	fileSlug := Slugify(title)
	if fileSlug == "" {
		return "", fmt.Errorf("title %q: %w", title, domain.ErrInvalidRequest)
	}

	content, err := domain.EncodeFrontMatter(domain.ArticleMeta{
		Title:  title,
		Date:   date,
		Author: author,
	}, body)
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	path := fmt.Sprintf("%s/%s/collaboration/%s-%s.md", projectsDir, slug, date, fileSlug)
	if _, err := w.store.Create(ctx, path, content); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return path, nil
}

// ApproveDraft promotes a draft to the published area. Admin only.
func (w *Workspace) ApproveDraft(ctx context.Context, identity *domain.ResolvedIdentity, week, slug, editedBody string) (string, error) {
	if err := requireAdmin(identity); err != nil {
		return "", err
	}
	return w.publisher.Approve(ctx, week, slug, editedBody)
}

// RejectDraft discards a draft. Admin only.
func (w *Workspace) RejectDraft(ctx context.Context, identity *domain.ResolvedIdentity, week, slug string) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	return w.publisher.Reject(ctx, week, slug)
}

func requireAdmin(identity *domain.ResolvedIdentity) error {
	if identity == nil || identity.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func applyMemberAction(members []string, action, id string) []string {
	switch action {
	case ActionAdd:
		for _, m := range members {
			if m == id {
				return members
			}
		}
		return append(members, id)
	case ActionRemove:
		kept := members[:0]
		for _, m := range members {
			if m != id {
				kept = append(kept, m)
			}
		}
		return kept
	}
	return members
}

func projectConfigPath(slug string) string {
	return projectsDir + "/" + slug + "/config.json"
}

func (w *Workspace) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}
