package service

import (
	"context"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

type ReviewService interface {
	Create(ctx context.Context, p policy.Principal, req *CreateReviewRequest) (*model.Review, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
	ListByProduct(ctx context.Context, p policy.Principal, productID uuid.UUID) ([]model.Review, error)
}

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type reviewService struct {
	store repository.Store
}

func NewReviewService(store repository.Store) ReviewService {
	return &reviewService{store: store}
}

func (s *reviewService) Create(ctx context.Context, p policy.Principal, req *CreateReviewRequest) (*model.Review, error) {
	if err := policy.Authorize(p, policy.ReviewWrite, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, req.ProductID); err != nil {
		return nil, lookupErr(err, "Product")
	}

	review := &model.Review{UserID: p.UserID, ProductID: req.ProductID, Rating: req.Rating, Comment: req.Comment}
	review.CreatedBy = actor(p)
	review.UpdatedBy = actor(p)
	if err := s.store.Reviews().Create(ctx, review); err != nil {
		return nil, apperror.Database("failed to create review", err)
	}
	return review, nil
}

// Reviews are public, so a foreign review answers Forbidden rather than
// NotFound.
func (s *reviewService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateReviewRequest) (*model.Review, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	review, err := s.store.Reviews().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Review")
	}
	if err := policy.Authorize(p, policy.ReviewWrite, review.UserID); err != nil {
		return nil, err
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	review.UpdatedBy = actor(p)
	if err := s.store.Reviews().Update(ctx, review); err != nil {
		return nil, apperror.Database("failed to update review", err)
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	review, err := s.store.Reviews().FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "Review")
	}
	if err := policy.Authorize(p, policy.ReviewWrite, review.UserID); err != nil {
		return err
	}
	if err := s.store.Reviews().Delete(ctx, id); err != nil {
		return lookupErr(err, "Review")
	}
	return nil
}

func (s *reviewService) ListByProduct(ctx context.Context, p policy.Principal, productID uuid.UUID) ([]model.Review, error) {
	if _, ok := policy.Allowed(p, policy.ProductBrowse); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.ProductBrowse)
	}
	if _, err := s.store.Products().FindByID(ctx, productID); err != nil {
		return nil, lookupErr(err, "Product")
	}
	reviews, err := s.store.Reviews().FindByProduct(ctx, productID)
	if err != nil {
		return nil, apperror.Database("failed to list reviews", err)
	}
	return reviews, nil
}
