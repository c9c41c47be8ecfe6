package adapter

import (
	"context"
	"errors"
	"slices"

	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository"
)

// LocalRelationAdapter implements RelationAdapter on the principal store.
type LocalRelationAdapter struct {
	repo repository.PrincipalRepository
}

var _ RelationAdapter = (*LocalRelationAdapter)(nil)

func NewLocalRelationAdapter(repo repository.PrincipalRepository) *LocalRelationAdapter {
	return &LocalRelationAdapter{repo: repo}
}

func (a *LocalRelationAdapter) CreateRelations(ctx context.Context, req *RelationRequest) (*model.BatchResult, error) {
	if len(req.PrincipalIDs) == 0 {
		return &model.BatchResult{}, nil
	}

	matched, err := a.repo.AddRoleToPrincipals(ctx, req.RoleID, req.PrincipalIDs)
	if err != nil {
		return nil, err
	}

	result := &model.BatchResult{SuccessCount: len(matched)}
	for _, id := range req.PrincipalIDs {
		if !slices.Contains(matched, id) {
			result.FailedCount++
			result.FailedUsers = append(result.FailedUsers, model.FailedUserInfo{
				UserID: id,
				Reason: "user not found",
			})
		}
	}
	return result, nil
}

func (a *LocalRelationAdapter) DeleteRelations(ctx context.Context, req *RelationRequest) error {
	if len(req.PrincipalIDs) == 0 {
		return nil
	}
	return a.repo.RemoveRoleFromPrincipals(ctx, req.RoleID, req.PrincipalIDs)
}

func (a *LocalRelationAdapter) ListRelations(ctx context.Context, roleID string) ([]string, error) {
	return a.repo.ListPrincipalIDsByRole(ctx, roleID)
}

func (a *LocalRelationAdapter) CheckRelation(ctx context.Context, roleID, principalID string) (bool, error) {
	p, err := a.repo.GetPrincipal(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return slices.Contains(p.RoleIDs, roleID), nil
}
