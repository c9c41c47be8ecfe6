// Package memory is an in-process Store with the same contract as the MongoDB
// implementation. A single mutex serializes every operation.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository"

	"github.com/google/uuid"
)

type Repository struct {
	mu sync.RWMutex

	principals    map[string]*model.Principal
	roles         map[string]*model.Role
	permissions   map[string]*model.Permission
	resourceTypes map[string]*model.ResourceType
	records       map[string]*model.DataRecord
	products      map[string]*model.Product
	audit         []*model.AuditEntry

	// now is swappable so tests get deterministic ordering
	now func() time.Time
}

var _ repository.Store = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		principals:    make(map[string]*model.Principal),
		roles:         make(map[string]*model.Role),
		permissions:   make(map[string]*model.Permission),
		resourceTypes: make(map[string]*model.ResourceType),
		records:       make(map[string]*model.DataRecord),
		products:      make(map[string]*model.Product),
		now:           time.Now,
	}
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clonePrincipal(p *model.Principal) *model.Principal {
	out := *p
	out.RoleIDs = slices.Clone(p.RoleIDs)
	return &out
}

func cloneRole(role *model.Role) *model.Role {
	out := *role
	out.PermissionIDs = slices.Clone(role.PermissionIDs)
	if out.PermissionIDs == nil {
		out.PermissionIDs = []string{}
	}
	return &out
}

func clonePermission(p *model.Permission) *model.Permission {
	out := *p
	return &out
}

func cloneResourceType(t *model.ResourceType) *model.ResourceType {
	out := *t
	out.Fields = slices.Clone(t.Fields)
	return &out
}

func cloneRecord(rec *model.DataRecord) *model.DataRecord {
	out := *rec
	out.Data = maps.Clone(rec.Data)
	return &out
}

func cloneProduct(p *model.Product) *model.Product {
	out := *p
	return &out
}

// --- principals ---

func (r *Repository) CreatePrincipal(ctx context.Context, p *model.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.Email = key(p.Email)
	for _, existing := range r.principals {
		if existing.Email == p.Email {
			return repository.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.principals[p.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.RoleIDs == nil {
		p.RoleIDs = []string{}
	}
	r.principals[p.ID] = clonePrincipal(p)
	return nil
}

func (r *Repository) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePrincipal(p), nil
}

func (r *Repository) GetPrincipalByEmail(ctx context.Context, email string) (*model.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = key(email)
	for _, p := range r.principals {
		if p.Email == email {
			return clonePrincipal(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) ListPrincipalIDsByRole(ctx context.Context, roleID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []string{}
	for _, p := range r.principals {
		if slices.Contains(p.RoleIDs, roleID) {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) AddRoleToPrincipals(ctx context.Context, roleID string, principalIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []string{}
	for _, id := range principalIDs {
		p, ok := r.principals[id]
		if !ok {
			continue
		}
		matched = append(matched, id)
		if !slices.Contains(p.RoleIDs, roleID) {
			p.RoleIDs = append(p.RoleIDs, roleID)
			p.UpdatedAt = r.now()
		}
	}
	return matched, nil
}

func (r *Repository) RemoveRoleFromPrincipals(ctx context.Context, roleID string, principalIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range principalIDs {
		if p, ok := r.principals[id]; ok {
			p.RoleIDs = slices.DeleteFunc(p.RoleIDs, func(v string) bool { return v == roleID })
			p.UpdatedAt = r.now()
		}
	}
	return nil
}

// --- roles ---

func (r *Repository) CreateRole(ctx context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role.NameKey = key(role.Name)
	for _, existing := range r.roles {
		if existing.NameKey == role.NameKey {
			return repository.ErrDuplicate
		}
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := r.now()
	role.CreatedAt = now
	role.UpdatedAt = now
	if role.PermissionIDs == nil {
		role.PermissionIDs = []string{}
	}
	r.roles[role.ID] = cloneRole(role)
	return nil
}

func (r *Repository) GetRole(ctx context.Context, id string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRole(role), nil
}

func (r *Repository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := key(name)
	for _, role := range r.roles {
		if role.NameKey == k {
			return cloneRole(role), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) GetRolesByIDs(ctx context.Context, ids []string) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Role{}
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			out = append(out, cloneRole(role))
		}
	}
	return out, nil
}

func (r *Repository) ListRoles(ctx context.Context) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameKey < out[j].NameKey })
	return out, nil
}

func (r *Repository) UpdateRole(ctx context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.roles[role.ID]
	if !ok {
		return repository.ErrNotFound
	}
	k := key(role.Name)
	for id, existing := range r.roles {
		if id != role.ID && existing.NameKey == k {
			return repository.ErrDuplicate
		}
	}
	stored.Name = role.Name
	stored.NameKey = k
	stored.Description = role.Description
	stored.UpdatedAt = r.now()
	role.NameKey = k
	role.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.roles, id)
	for _, p := range r.principals {
		p.RoleIDs = slices.DeleteFunc(p.RoleIDs, func(v string) bool { return v == id })
	}
	return nil
}

func (r *Repository) AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[roleID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range permissionIDs {
		if !slices.Contains(role.PermissionIDs, id) {
			role.PermissionIDs = append(role.PermissionIDs, id)
		}
	}
	role.UpdatedAt = r.now()
	return nil
}

func (r *Repository) RemovePermissionsFromRole(ctx context.Context, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[roleID]
	if !ok {
		return repository.ErrNotFound
	}
	role.PermissionIDs = []string{}
	role.UpdatedAt = r.now()
	return nil
}

func (r *Repository) ReplacePermissionInRoles(ctx context.Context, oldID, newID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, role := range r.roles {
		if !slices.Contains(role.PermissionIDs, oldID) {
			continue
		}
		role.PermissionIDs = slices.DeleteFunc(role.PermissionIDs, func(v string) bool { return v == oldID })
		if !slices.Contains(role.PermissionIDs, newID) {
			role.PermissionIDs = append(role.PermissionIDs, newID)
		}
		role.UpdatedAt = r.now()
	}
	return nil
}

// --- permissions ---

func (r *Repository) findPermissionLocked(resource, action string) *model.Permission {
	for _, p := range r.permissions {
		if p.Resource == resource && p.Action == action {
			return p
		}
	}
	return nil
}

func (r *Repository) CreatePermission(ctx context.Context, p *model.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createPermissionLocked(p)
}

func (r *Repository) createPermissionLocked(p *model.Permission) error {
	if r.findPermissionLocked(p.Resource, p.Action) != nil {
		return repository.ErrDuplicate
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.permissions[p.ID] = clonePermission(p)
	return nil
}

func (r *Repository) FindOrCreatePermission(ctx context.Context, p *model.Permission) (*model.Permission, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findPermissionLocked(p.Resource, p.Action); existing != nil {
		return clonePermission(existing), false, nil
	}
	created := clonePermission(p)
	if err := r.createPermissionLocked(created); err != nil {
		return nil, false, err
	}
	return clonePermission(created), true, nil
}

func (r *Repository) GetPermission(ctx context.Context, id string) (*model.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.permissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePermission(p), nil
}

func (r *Repository) GetPermissionByKey(ctx context.Context, resource, action string) (*model.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.findPermissionLocked(resource, action)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	return clonePermission(p), nil
}

func (r *Repository) GetPermissionsByIDs(ctx context.Context, ids []string) ([]*model.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Permission{}
	for _, id := range ids {
		if p, ok := r.permissions[id]; ok {
			out = append(out, clonePermission(p))
		}
	}
	return out, nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	return r.listPermissions(func(*model.Permission) bool { return true }), nil
}

func (r *Repository) ListPermissionsByResource(ctx context.Context, resource string) ([]*model.Permission, error) {
	return r.listPermissions(func(p *model.Permission) bool { return p.Resource == resource }), nil
}

func (r *Repository) listPermissions(match func(*model.Permission) bool) []*model.Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Permission{}
	for _, p := range r.permissions {
		if match(p) {
			out = append(out, clonePermission(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (r *Repository) UpdatePermission(ctx context.Context, p *model.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.permissions[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if other := r.findPermissionLocked(p.Resource, p.Action); other != nil && other.ID != p.ID {
		return repository.ErrDuplicate
	}
	stored.Resource = p.Resource
	stored.Action = p.Action
	stored.Description = p.Description
	stored.UpdatedAt = r.now()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) DeletePermission(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.permissions[id]; !ok {
		return repository.ErrNotFound
	}
	r.deletePermissionsLocked([]string{id})
	return nil
}

func (r *Repository) deletePermissionsLocked(ids []string) {
	for _, id := range ids {
		delete(r.permissions, id)
	}
	for _, role := range r.roles {
		role.PermissionIDs = slices.DeleteFunc(role.PermissionIDs, func(v string) bool {
			return slices.Contains(ids, v)
		})
	}
}

// --- resource types ---

func (r *Repository) CreateResourceType(ctx context.Context, t *model.ResourceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.NameKey = key(t.Name)
	if t.Active {
		for _, existing := range r.resourceTypes {
			if existing.Active && existing.NameKey == t.NameKey {
				return repository.ErrDuplicate
			}
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.resourceTypes[t.ID] = cloneResourceType(t)
	return nil
}

func (r *Repository) GetResourceType(ctx context.Context, id string) (*model.ResourceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.resourceTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneResourceType(t), nil
}

func (r *Repository) GetActiveResourceTypeByName(ctx context.Context, name string) (*model.ResourceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := key(name)
	for _, t := range r.resourceTypes {
		if t.Active && t.NameKey == k {
			return cloneResourceType(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) ListResourceTypes(ctx context.Context, includeInactive bool) ([]*model.ResourceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.ResourceType{}
	for _, t := range r.resourceTypes {
		if t.Active || includeInactive {
			out = append(out, cloneResourceType(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameKey == out[j].NameKey {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].NameKey < out[j].NameKey
	})
	return out, nil
}

func (r *Repository) UpdateResourceType(ctx context.Context, t *model.ResourceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.resourceTypes[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	k := key(t.Name)
	if stored.Active {
		for id, existing := range r.resourceTypes {
			if id != t.ID && existing.Active && existing.NameKey == k {
				return repository.ErrDuplicate
			}
		}
	}
	stored.Name = t.Name
	stored.NameKey = k
	stored.DisplayName = t.DisplayName
	stored.Fields = slices.Clone(t.Fields)
	stored.UpdatedAt = r.now()
	t.NameKey = k
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) DeactivateResourceType(ctx context.Context, id string) (*repository.DeactivateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.resourceTypes[id]
	if !ok || !t.Active {
		return nil, repository.ErrNotFound
	}

	result := &repository.DeactivateResult{}
	for recID, rec := range r.records {
		if rec.ModelName == t.Name {
			delete(r.records, recID)
			result.RecordsDeleted++
		}
	}

	resource := t.ResourceName()
	var permIDs []string
	for permID, p := range r.permissions {
		if p.Resource == resource {
			permIDs = append(permIDs, permID)
		}
	}
	r.deletePermissionsLocked(permIDs)
	result.PermissionsDeleted = int64(len(permIDs))

	t.Active = false
	t.UpdatedAt = r.now()
	return result, nil
}

// --- data records ---

func (r *Repository) CreateRecord(ctx context.Context, rec *model.DataRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, ok := r.records[rec.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, modelName, id string) (*model.DataRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok || rec.ModelName != modelName {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *Repository) ListRecords(ctx context.Context, modelName string, skip, limit int64) ([]*model.DataRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []*model.DataRecord{}
	for _, rec := range r.records {
		if rec.ModelName == modelName {
			all = append(all, rec)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page := paginate(all, skip, limit)
	out := make([]*model.DataRecord, 0, len(page))
	for _, rec := range page {
		out = append(out, cloneRecord(rec))
	}
	return out, int64(len(all)), nil
}

func (r *Repository) UpdateRecord(ctx context.Context, rec *model.DataRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[rec.ID]
	if !ok || stored.ModelName != rec.ModelName {
		return repository.ErrNotFound
	}
	stored.Data = maps.Clone(rec.Data)
	stored.UpdatedAt = r.now()
	rec.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) DeleteRecord(ctx context.Context, modelName, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.ModelName != modelName {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *Repository) RenameModel(ctx context.Context, oldName, newName string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, rec := range r.records {
		if rec.ModelName == oldName {
			rec.ModelName = newName
			rec.UpdatedAt = r.now()
			n++
		}
	}
	return n, nil
}

// --- products ---

func (r *Repository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.products[p.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *Repository) sortedProductsLocked() []*model.Product {
	all := make([]*model.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

func (r *Repository) ListProducts(ctx context.Context, skip, limit int64) ([]*model.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedProductsLocked()
	page := paginate(all, skip, limit)
	out := make([]*model.Product, 0, len(page))
	for _, p := range page {
		out = append(out, cloneProduct(p))
	}
	return out, int64(len(all)), nil
}

func (r *Repository) AllProducts(ctx context.Context) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Product, 0, len(r.products))
	for _, p := range r.sortedProductsLocked() {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = p.Name
	stored.Price = p.Price
	stored.Image = p.Image
	stored.UpdatedAt = r.now().UTC()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// --- audit ---

func (r *Repository) CreateAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	out := *entry
	r.audit = append(r.audit, &out)
	return nil
}

func (r *Repository) FindAuditEntries(ctx context.Context, q model.AuditQuery) ([]*model.AuditEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*model.AuditEntry{}
	// newest first
	for i := len(r.audit) - 1; i >= 0; i-- {
		e := r.audit[i]
		if q.Operation != "" && e.Operation != q.Operation {
			continue
		}
		if q.RoleID != "" && e.RoleID != q.RoleID {
			continue
		}
		if q.Resource != "" && e.Resource != q.Resource {
			continue
		}
		out := *e
		matched = append(matched, &out)
	}
	return paginate(matched, q.Skip(), int64(q.Limit)), int64(len(matched)), nil
}

func paginate[T any](items []T, skip, limit int64) []T {
	n := int64(len(items))
	if skip >= n {
		return []T{}
	}
	end := n
	if limit > 0 && skip+limit < n {
		end = skip + limit
	}
	return items[skip:end]
}
