package access

import (
	"context"
	"testing"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// fakeStore serves project records from memory; only the read side used
// by the resolver is implemented.
type fakeStore struct {
	files map[string]string
	dirs  map[string][]string
}

func (f *fakeStore) Read(_ context.Context, path string) (domain.Document, error) {
	body, ok := f.files[path]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return domain.Document{Body: body, Version: "v1"}, nil
}

func (f *fakeStore) List(_ context.Context, dir string) ([]ports.Entry, error) {
	entries := make([]ports.Entry, 0, len(f.dirs[dir]))
	for _, name := range f.dirs[dir] {
		entries = append(entries, ports.Entry{Name: name, IsDir: true})
	}
	return entries, nil
}

func (f *fakeStore) Create(context.Context, string, string) (string, error) {
	return "", domain.ErrInvalidRequest
}

func (f *fakeStore) Update(context.Context, string, string, string) (string, error) {
	return "", domain.ErrInvalidRequest
}

func (f *fakeStore) Delete(context.Context, string, string) error {
	return domain.ErrInvalidRequest
}

func (f *fakeStore) Move(context.Context, string, string, string, string) error {
	return domain.ErrInvalidRequest
}

func membershipStore() *fakeStore {
	return &fakeStore{
		dirs: map[string][]string{
			"content/projects": {"acme-corp", "globex", "broken"},
		},
		files: map[string]string{
			"content/projects/acme-corp/config.json": `{"name":"Acme Corp","consultants":["consultant-789"],"clients":["client-555"]}`,
			"content/projects/globex/config.json":    `{"name":"Globex","consultants":[],"clients":["client-555","admin-123"]}`,
			"content/projects/broken/config.json":    `{not json`,
		},
	}
}

func newTestResolver(store ports.ContentStore) *Resolver {
	return NewResolver(store, []string{"admin-123", "admin-456"}, []string{"consultant-789", "consultant-012"}, nil)
}

func TestResolveAdminWinsOverMembership(t *testing.T) {
	t.Parallel()

	// admin-123 is also listed as a client of globex; the allowlist wins.
	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "admin-123")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %+v", identity)
	}
	if len(identity.Projects) != 0 {
		t.Fatalf("admin project set must be empty, got %v", identity.Projects)
	}
}

func TestResolveUnknownIsNil(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "stranger-999")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity, got %+v", identity)
	}
}

func TestResolveConsultantCollectsAssignedProjects(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "consultant-789")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleConsultant {
		t.Fatalf("expected consultant, got %+v", identity)
	}
	if len(identity.Projects) != 1 || identity.Projects[0] != "acme-corp" {
		t.Fatalf("unexpected project set: %v", identity.Projects)
	}
}

func TestResolveConsultantWithNoProjectsStillAuthenticates(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "consultant-012")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleConsultant {
		t.Fatalf("expected consultant, got %+v", identity)
	}
	if len(identity.Projects) != 0 {
		t.Fatalf("expected empty project set, got %v", identity.Projects)
	}
}

func TestResolveClientByMembership(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "client-555")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleClient {
		t.Fatalf("expected client, got %+v", identity)
	}
	if len(identity.Projects) != 2 {
		t.Fatalf("expected two projects, got %v", identity.Projects)
	}
}

func TestResolveSkipsCorruptProjectRecord(t *testing.T) {
	t.Parallel()

	// The broken record must not block resolution; client-555 still
	// resolves from the healthy ones.
	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "client-555")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.Role != domain.RoleClient {
		t.Fatalf("expected client despite corrupt record, got %+v", identity)
	}
}

func TestResolveEmptyIdentity(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(membershipStore())
	identity, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil for empty id, got %+v", identity)
	}
}
