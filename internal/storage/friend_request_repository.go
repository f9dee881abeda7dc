package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	FindPendingRequest(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error
	DeleteRequest(ctx context.Context, requestID uint) error
	GetPendingRequestsForUser(ctx context.Context, receiverID uint) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a new GORM-backed friend request repository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// FindPendingRequest checks for an existing pending request between two users
// in either direction. A missing request is reported as (nil, nil).
func (r *gormFriendRequestRepository) FindPendingRequest(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID1, userID2, userID2, userID1).
		Where("status = ?", models.FriendRequestStatusPending).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetRequestByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) UpdateRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	return r.db.WithContext(ctx).Model(&models.FriendRequest{}).Where("id = ?", requestID).Update("status", status).Error
}

func (r *gormFriendRequestRepository) DeleteRequest(ctx context.Context, requestID uint) error {
	return r.db.WithContext(ctx).Delete(&models.FriendRequest{}, requestID).Error
}

func (r *gormFriendRequestRepository) GetPendingRequestsForUser(ctx context.Context, receiverID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}
