package services

import (
	"context"
	"errors"
	"time"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	ReasonNotPublished        = "not published"
	ReasonPremiumRequired     = "premium subscription required"
	ReasonSubscriptionExpired = "subscription expired"
)

// ContentRef identifies a content item across the three kind tables.
type ContentRef struct {
	Kind models.ContentKind
	ID   string
}

// AccessResolver only reads. Expiry is checked against the clock here and is
// never written back; flipping rows to expired belongs to SubscriptionService.
type AccessResolver interface {
	ResolveAccess(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef, creatorID string) (*dto.AccessDecision, error)
	Decide(ctx context.Context, db *gorm.DB, viewerID string, content *models.ContentMeta, creatorID string) (*dto.AccessDecision, error)
}

type accessResolver struct {
	contentRepo      repositories.ContentRepository
	subscriptionRepo repositories.SubscriptionRepository
	now              func() time.Time
}

func NewAccessResolver(
	contentRepo repositories.ContentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
) AccessResolver {
	return &accessResolver{
		contentRepo:      contentRepo,
		subscriptionRepo: subscriptionRepo,
		now:              time.Now,
	}
}

func (r *accessResolver) ResolveAccess(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef, creatorID string) (*dto.AccessDecision, error) {
	meta, err := r.contentRepo.FindContentMeta(db, ref.Kind, ref.ID)
	if err != nil {
		return nil, handleContentError(err)
	}
	return r.Decide(ctx, db, viewerID, meta, creatorID)
}

// Decide runs the ordered checks; the first one that matches wins.
// An empty creatorID means the content owner.
func (r *accessResolver) Decide(ctx context.Context, db *gorm.DB, viewerID string, content *models.ContentMeta, creatorID string) (*dto.AccessDecision, error) {
	if creatorID == "" {
		creatorID = content.OwnerID
	} else if creatorID != content.OwnerID {
		return nil, apperrors.Validation("access", "creator_id does not own this content")
	}

	decision := &dto.AccessDecision{IsPremium: content.IsPremium}

	if !content.IsPublished {
		if viewerID != "" && viewerID == content.OwnerID {
			decision.HasAccess = true
		} else {
			decision.Reason = ReasonNotPublished
		}
		return decision, nil
	}

	if !content.IsPremium {
		decision.HasAccess = true
		return decision, nil
	}

	// Анонимный пользователь не может иметь подписку, в базу не ходим.
	if viewerID == "" {
		decision.Reason = ReasonPremiumRequired
		return decision, nil
	}

	sub, err := r.subscriptionRepo.FindActive(db, viewerID, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			decision.Reason = ReasonPremiumRequired
			return decision, nil
		}
		logger.CtxWithError(ctx, "access: subscription lookup failed", err, "viewer_id", viewerID, "creator_id", creatorID)
		return nil, apperrors.StoreError(err)
	}

	if sub.ExpiresAt.Before(r.now()) {
		decision.Reason = ReasonSubscriptionExpired
		return decision, nil
	}

	decision.HasAccess = true
	return decision, nil
}

func handleContentError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrContentNotFound):
		return apperrors.NotFound("content", "Content not found")
	case errors.Is(err, repositories.ErrUnknownContentKind):
		return apperrors.ErrInvalidContentKind
	default:
		return apperrors.StoreError(err)
	}
}
