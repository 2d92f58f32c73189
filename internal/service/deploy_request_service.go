package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// UpdateDeployRequest is an admin edit of a deploy request.
type UpdateDeployRequest struct {
	Status string  `json:"status" binding:"required,oneof=new in_progress done"`
	Notes  *string `json:"notes" binding:"omitempty,max=5000"`
}

// DeployRequestService serves the admin deploy queue.
type DeployRequestService struct {
	deploys DeployRequestStore
}

func NewDeployRequestService(deploys DeployRequestStore) *DeployRequestService {
	return &DeployRequestService{deploys: deploys}
}

func (s *DeployRequestService) List(ctx context.Context, filter repository.DeployRequestFilter) ([]repository.DeployRequestView, int, error) {
	return s.deploys.List(ctx, filter)
}

func (s *DeployRequestService) Get(ctx context.Context, id int64) (*repository.DeployRequestView, error) {
	v, err := s.deploys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrDeployRequestNotFound
		}
		return nil, fmt.Errorf("load deploy request %d: %w", id, err)
	}
	return v, nil
}

func (s *DeployRequestService) Update(ctx context.Context, id int64, req *UpdateDeployRequest) (*repository.DeployRequestView, error) {
	status, err := models.ParseDeployStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	if err := s.deploys.Update(ctx, id, status, trimmed(req.Notes)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrDeployRequestNotFound
		}
		return nil, fmt.Errorf("update deploy request %d: %w", id, err)
	}
	log.Info().Int64("deploy_request_id", id).Str("status", string(status)).Msg("Deploy request updated")
	return s.Get(ctx, id)
}
