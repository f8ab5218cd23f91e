package domain

import (
	"context"
	"fmt"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/tx"
	"receiptflow/pkg/logger"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// CatalogService provides the CRUD flow shared by directory catalogs.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager

	beforeCreate []Hook[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		entityName: cfg.EntityName,
	}
}

// OnBeforeCreate registers a hook executed inside the create transaction.
func (s *CatalogService[T]) OnBeforeCreate(h Hook[T]) {
	s.beforeCreate = append(s.beforeCreate, h)
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewDependency("database", err).WithDetail("entity", s.entityName)
}

// Create validates and stores a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewValidation(err.Error())
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, h := range s.beforeCreate {
			if err := h(ctx, e); err != nil {
				return err
			}
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewDependency("database", err)
	}

	logger.Info(ctx, "catalog entry created", "entity", s.entityName)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return e, s.normalizeGetErr(err, code)
	}
	return e, nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return res, s.normalizeGetErr(err, nil)
	}
	return res, nil
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// Missing returns ids that are not in the catalog.
func (s *CatalogService[T]) Missing(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.Missing(ctx, ids)
}

// UniqueCode is a before-create hook rejecting a code that is already taken.
func UniqueCode[T entity.Validatable](repo CatalogRepository[T], entityName string, code func(T) string) Hook[T] {
	return func(ctx context.Context, e T) error {
		_, err := repo.GetByCode(ctx, code(e))
		switch {
		case err == nil:
			return apperror.NewDuplicate(entityName, "code", code(e))
		case apperror.IsNotFound(err):
			return nil
		default:
			return err
		}
	}
}
