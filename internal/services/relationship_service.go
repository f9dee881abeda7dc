package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrSelfRelationship      = errors.New("cannot create a relationship with yourself")
	ErrAlreadyFollowing      = errors.New("already following this user")
	ErrNotFollowing          = errors.New("not following this user")
	ErrTargetUserNotFound    = errors.New("target user not found")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrNotFriends            = errors.New("users are not friends")
	ErrFriendRequestExists   = errors.New("a pending friend request already exists")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrNotReceiverOfRequest  = errors.New("only the receiver can respond to this request")
	ErrNotSenderOfRequest    = errors.New("only the sender can cancel this request")
	ErrRequestNotPending     = errors.New("friend request is not pending")
)

// RelationshipService owns the follow graph and the friend-request state
// machine. Friendships are materialized rows created when a request is
// accepted, not derived from mutual follows.
type RelationshipService interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	ListFollowers(ctx context.Context, userID uint) ([]models.UserBasicInfo, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.UserBasicInfo, error)

	SendFriendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, receiverID, requestID uint) error
	DeclineFriendRequest(ctx context.Context, receiverID, requestID uint) error
	CancelFriendRequest(ctx context.Context, senderID, requestID uint) error
	ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)

	Unfriend(ctx context.Context, userID, friendID uint) error
	ListFriends(ctx context.Context, userID uint) ([]models.UserBasicInfo, error)
	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
}

type relationshipService struct {
	db             *gorm.DB
	userRepo       storage.UserRepository
	followRepo     storage.FollowRepository
	requestRepo    storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	notifier       Notifier
}

// NewRelationshipService creates a new RelationshipService instance.
func NewRelationshipService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	followRepo storage.FollowRepository,
	requestRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	notifier Notifier,
) RelationshipService {
	return &relationshipService{
		db:             db,
		userRepo:       userRepo,
		followRepo:     followRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		notifier:       notifier,
	}
}

// Follow creates a follow edge. Duplicate follows are resolved by the
// database: the composite primary key turns the second insert into a
// conflict regardless of timing.
func (s *relationshipService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return ErrSelfRelationship
	}

	target, err := s.userRepo.GetUserByID(ctx, followingID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrTargetUserNotFound
		}
		return fmt.Errorf("failed to check target user %d: %w", followingID, err)
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		if storage.IsDuplicateKey(err) {
			return ErrAlreadyFollowing
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}

	s.notify(ctx, target.ID, "You have a new follower.", fmt.Sprintf("/users/%d", followerID))
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return ErrSelfRelationship
	}
	deleted, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID uint) ([]models.UserBasicInfo, error) {
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers for user %d: %w", userID, err)
	}
	return toBasicInfos(users), nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint) ([]models.UserBasicInfo, error) {
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following for user %d: %w", userID, err)
	}
	return toBasicInfos(users), nil
}

// SendFriendRequest validates the pair and creates a pending request.
func (s *relationshipService) SendFriendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRelationship
	}

	if _, err := s.userRepo.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrTargetUserNotFound
		}
		return nil, fmt.Errorf("failed to check receiver %d: %w", receiverID, err)
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	// A pending request in either direction blocks a new one, so two users
	// who request each other end up with a single request to accept.
	existing, err := s.requestRepo.FindPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if existing != nil {
		return nil, ErrFriendRequestExists
	}

	request := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	s.notify(ctx, receiverID, "You received a friend request.", "/friends/requests")
	return request, nil
}

// AcceptFriendRequest flips the request to accepted and materializes the
// friendship in one transaction.
func (s *relationshipService) AcceptFriendRequest(ctx context.Context, receiverID, requestID uint) error {
	var senderID uint
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequestRepo := storage.NewGormFriendRequestRepository(tx)
		txFriendshipRepo := storage.NewGormFriendshipRepository(tx)

		request, err := txRequestRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFriendRequestNotFound
			}
			return fmt.Errorf("failed to load friend request %d: %w", requestID, err)
		}

		if request.ReceiverID != receiverID {
			return ErrNotReceiverOfRequest
		}
		if request.Status != models.FriendRequestStatusPending {
			return ErrRequestNotPending
		}

		if err := txRequestRepo.UpdateRequestStatus(ctx, requestID, models.FriendRequestStatusAccepted); err != nil {
			return fmt.Errorf("failed to accept friend request %d: %w", requestID, err)
		}

		friendship := &models.Friendship{
			UserID1: request.SenderID,
			UserID2: request.ReceiverID,
		}
		if err := txFriendshipRepo.CreateFriendship(ctx, friendship); err != nil {
			if storage.IsDuplicateKey(err) {
				// A concurrent accept already materialized the friendship.
				log.Printf("Friendship between %d and %d already exists for request %d", request.SenderID, request.ReceiverID, requestID)
				return nil
			}
			return fmt.Errorf("failed to create friendship: %w", err)
		}

		senderID = request.SenderID
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if senderID != 0 {
		s.notify(ctx, senderID, "Your friend request was accepted.", fmt.Sprintf("/users/%d", receiverID))
	}
	return nil
}

func (s *relationshipService) DeclineFriendRequest(ctx context.Context, receiverID, requestID uint) error {
	request, err := s.requestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendRequestNotFound
		}
		return fmt.Errorf("failed to load friend request %d: %w", requestID, err)
	}

	if request.ReceiverID != receiverID {
		return ErrNotReceiverOfRequest
	}
	if request.Status != models.FriendRequestStatusPending {
		return ErrRequestNotPending
	}

	if err := s.requestRepo.UpdateRequestStatus(ctx, requestID, models.FriendRequestStatusDeclined); err != nil {
		return fmt.Errorf("failed to decline friend request %d: %w", requestID, err)
	}
	return nil
}

// CancelFriendRequest removes a pending request. Only the sender may cancel;
// declines are the receiver's move and keep the row.
func (s *relationshipService) CancelFriendRequest(ctx context.Context, senderID, requestID uint) error {
	request, err := s.requestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendRequestNotFound
		}
		return fmt.Errorf("failed to load friend request %d: %w", requestID, err)
	}

	if request.SenderID != senderID {
		return ErrNotSenderOfRequest
	}
	if request.Status != models.FriendRequestStatusPending {
		return ErrRequestNotPending
	}

	if err := s.requestRepo.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("failed to cancel friend request %d: %w", requestID, err)
	}
	return nil
}

func (s *relationshipService) ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	requests, err := s.requestRepo.GetPendingRequestsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for user %d: %w", userID, err)
	}
	return requests, nil
}

func (s *relationshipService) Unfriend(ctx context.Context, userID, friendID uint) error {
	if userID == friendID {
		return ErrSelfRelationship
	}
	deleted, err := s.friendshipRepo.DeleteFriendship(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if !deleted {
		return ErrNotFriends
	}
	return nil
}

func (s *relationshipService) ListFriends(ctx context.Context, userID uint) ([]models.UserBasicInfo, error) {
	users, err := s.friendshipRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends for user %d: %w", userID, err)
	}
	return toBasicInfos(users), nil
}

func (s *relationshipService) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.friendshipRepo.AreUsersFriends(ctx, userID1, userID2)
}

// notify sends a best-effort notification; relationship operations never
// fail because the notification pipeline is down.
func (s *relationshipService) notify(ctx context.Context, userID uint, content, link string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, content, link); err != nil {
		log.Printf("Failed to notify user %d: %v", userID, err)
	}
}

func toBasicInfos(users []models.User) []models.UserBasicInfo {
	infos := make([]models.UserBasicInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, models.UserBasicInfo{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			AvatarURL: u.AvatarURL,
			Credits:   u.Credits,
		})
	}
	return infos
}
