package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog/internal/rbac/adapter"
	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/events"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/policy"
	"catalog/internal/rbac/repository"
)

type RBACService interface {
	ListRoles(ctx context.Context) ([]*model.RoleDetail, error)
	GetRole(ctx context.Context, id string) (*model.RoleDetail, error)
	CreateRole(ctx context.Context, callerID string, req model.CreateRoleReq) (*model.RoleDetail, error)
	UpdateRole(ctx context.Context, callerID, id string, req model.UpdateRoleReq) (*model.RoleDetail, error)
	DeleteRole(ctx context.Context, callerID, id string) (*model.Role, error)
	AddRolePermissions(ctx context.Context, callerID, id string, req model.RolePermissionsReq) (*model.RoleDetail, error)
	SetRolePermissions(ctx context.Context, callerID, id string, req model.RolePermissionsReq) (*model.RoleDetail, error)
	AssignRoleUsers(ctx context.Context, callerID, id string, req model.RoleUsersReq) (*model.BatchResult, error)
	RemoveRoleUsers(ctx context.Context, callerID, id string, req model.RoleUsersReq) error

	ListPermissions(ctx context.Context) ([]*model.Permission, error)
	GetPermission(ctx context.Context, id string) (*model.Permission, error)
	CreatePermission(ctx context.Context, callerID string, req model.CreatePermissionReq) (*model.Permission, error)
	UpdatePermission(ctx context.Context, callerID, id string, req model.UpdatePermissionReq) (*model.Permission, error)
	DeletePermission(ctx context.Context, callerID, id string) (*model.Permission, error)
	CheckPermission(ctx context.Context, callerID string, req model.CheckPermissionReq) (*model.CheckPermissionResp, error)

	ListAudit(ctx context.Context, q model.AuditQuery) (*model.AuditList, error)
}

type ModelService interface {
	RegisterResourceType(ctx context.Context, callerID string, req model.CreateResourceTypeReq) (*model.ResourceType, error)
	ListResourceTypes(ctx context.Context) ([]*model.ResourceType, error)
	GetResourceType(ctx context.Context, id string) (*model.ResourceType, error)
	UpdateResourceType(ctx context.Context, callerID, id string, req model.UpdateResourceTypeReq) (*model.ResourceType, error)
	DeactivateResourceType(ctx context.Context, callerID, id string) (*repository.DeactivateResult, error)

	ListRecords(ctx context.Context, callerID, modelName string, q model.PageQuery) (*model.DataRecordList, error)
	GetRecord(ctx context.Context, callerID, modelName, id string) (*model.DataRecord, error)
	CreateRecord(ctx context.Context, callerID, modelName string, req model.DataRecordReq) (*model.DataRecord, error)
	UpdateRecord(ctx context.Context, callerID, modelName, id string, req model.DataRecordReq) (*model.DataRecord, error)
	DeleteRecord(ctx context.Context, callerID, modelName, id string) error
}

type CatalogService interface {
	ListProducts(ctx context.Context, q model.PageQuery) (*model.ProductList, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, callerID string, req model.ProductReq) (*model.Product, error)
	UpdateProduct(ctx context.Context, callerID, id string, req model.ProductReq) (*model.Product, error)
	DeleteProduct(ctx context.Context, callerID, id string) error
	SearchProducts(ctx context.Context, keyword string, q model.PageQuery) (*model.SearchResult, error)
}

type SyncService interface {
	SyncStatus(ctx context.Context) model.SyncStatus
	SyncAll(ctx context.Context, typeName string) (int, error)
	ResetSync(ctx context.Context) error
	RebuildIndex(ctx context.Context) (int, error)
}

// SyncQueue is the asynchronous index sync queue.
type SyncQueue interface {
	Enqueue(op, typeName string, payload any)
	Status(ctx context.Context) model.SyncStatus
	Reset() error
}

// Indexer runs synchronous index operations.
type Indexer interface {
	ReindexAll(ctx context.Context, typeName string) (int, error)
	Search(ctx context.Context, keyword string, q model.PageQuery) (*model.SearchResult, error)
}

type Deps struct {
	Store    repository.Store
	Resolver *policy.Resolver
	Bus      *events.Bus
	// Relations defaults to the local adapter over Store
	Relations adapter.RelationAdapter
	Queue     SyncQueue
	Indexer   Indexer
	Logger    *slog.Logger
}

type Service struct {
	Store     repository.Store
	Resolver  *policy.Resolver
	Events    events.Publisher
	Relations adapter.RelationAdapter
	Queue     SyncQueue
	Indexer   Indexer
	logger    *slog.Logger
}

var (
	_ RBACService    = (*Service)(nil)
	_ ModelService   = (*Service)(nil)
	_ CatalogService = (*Service)(nil)
	_ SyncService    = (*Service)(nil)
)

// NewService wires the service and subscribes its post-commit handlers to the bus.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Bus == nil {
		d.Bus = events.NewBus(d.Logger)
	}
	if d.Relations == nil {
		d.Relations = adapter.NewLocalRelationAdapter(d.Store)
	}
	s := &Service{
		Store:     d.Store,
		Resolver:  d.Resolver,
		Events:    d.Bus,
		Relations: d.Relations,
		Queue:     d.Queue,
		Indexer:   d.Indexer,
		logger:    d.Logger,
	}

	d.Bus.Subscribe(events.ResourceTypeCreated, s.onResourceTypeCreated)
	d.Bus.Subscribe(events.ResourceTypeUpdated, s.onResourceTypeUpdated)
	if d.Queue != nil {
		RegisterIndexSync(d.Bus, d.Queue)
	}
	return s
}

// mapStoreErr turns store sentinels into caller-facing errors.
func mapStoreErr(err error, notFound, duplicate string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundf("%s", notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflictf("%s", duplicate)
	default:
		return err
	}
}

// recordHistory writes an audit entry in the background (fire-and-forget).
func (s *Service) recordHistory(entry *model.AuditEntry) {
	if s.Store == nil {
		return
	}
	entry.CreatedAt = time.Now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Store.CreateAuditEntry(ctx, entry); err != nil {
			s.logger.Warn("failed to record audit entry",
				slog.String("operation", entry.Operation),
				slog.Any("error", err),
			)
		}
	}()
}

func (s *Service) ListAudit(ctx context.Context, q model.AuditQuery) (*model.AuditList, error) {
	q.Normalize()
	entries, total, err := s.Store.FindAuditEntries(ctx, q)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*model.AuditEntry{}
	}
	return &model.AuditList{
		Results:    entries,
		Pagination: model.NewPagination(q.PageQuery, total),
	}, nil
}
