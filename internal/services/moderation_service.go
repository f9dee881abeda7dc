package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lyceum/internal/auth"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrReportAlreadyResolved = errors.New("report has already been resolved or dismissed")
	ErrInvalidReportStatus   = errors.New("reports can only be resolved or dismissed")
	ErrAlreadyBanned         = errors.New("user is already banned")
	ErrNotBanned             = errors.New("user is not banned")
	ErrCannotModerateAdmin   = errors.New("admin accounts cannot be banned")
)

// ModerationService covers the admin surface: the report queue, bans, and
// manual credit adjustments.
type ModerationService interface {
	FileReport(ctx context.Context, reporterID uint, targetType models.ReportTargetType, targetID uint, reason string) (*models.Report, error)
	ListPendingReports(ctx context.Context, limit, offset int) ([]models.Report, error)
	// ResolveReport moves a pending report to resolved or dismissed. The
	// transition is terminal.
	ResolveReport(ctx context.Context, reportID, adminID uint, status models.ReportStatus) error

	// BanUser flags the account and revokes all of its sessions so existing
	// tokens stop working immediately.
	BanUser(ctx context.Context, userID uint) error
	UnbanUser(ctx context.Context, userID uint) error

	// AdjustCredits applies a manual balance correction through the ledger.
	AdjustCredits(ctx context.Context, userID uint, delta int64) error
}

type moderationService struct {
	userRepo   storage.UserRepository
	reportRepo storage.ReportRepository
	credits    CreditsService
	revoker    auth.SessionRevoker
	notifier   Notifier
}

// NewModerationService creates a new ModerationService instance.
func NewModerationService(
	userRepo storage.UserRepository,
	reportRepo storage.ReportRepository,
	credits CreditsService,
	revoker auth.SessionRevoker,
	notifier Notifier,
) ModerationService {
	return &moderationService{
		userRepo:   userRepo,
		reportRepo: reportRepo,
		credits:    credits,
		revoker:    revoker,
		notifier:   notifier,
	}
}

func (s *moderationService) FileReport(ctx context.Context, reporterID uint, targetType models.ReportTargetType, targetID uint, reason string) (*models.Report, error) {
	if reason == "" {
		return nil, fmt.Errorf("report reason must not be empty")
	}
	report := &models.Report{
		ReporterID: reporterID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (s *moderationService) ListPendingReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.reportRepo.ListReportsByStatus(ctx, models.ReportStatusPending, limit, offset)
}

func (s *moderationService) ResolveReport(ctx context.Context, reportID, adminID uint, status models.ReportStatus) error {
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		return ErrInvalidReportStatus
	}

	resolved, err := s.reportRepo.Resolve(ctx, reportID, status, adminID)
	if err != nil {
		return fmt.Errorf("failed to resolve report %d: %w", reportID, err)
	}
	if !resolved {
		if _, err := s.reportRepo.GetReportByID(ctx, reportID); err != nil {
			return err
		}
		return ErrReportAlreadyResolved
	}
	return nil
}

func (s *moderationService) BanUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return ErrCannotModerateAdmin
	}
	if user.Banned {
		return ErrAlreadyBanned
	}

	if err := s.userRepo.SetBanned(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to ban user %d: %w", userID, err)
	}

	// Cut existing sessions. The flag alone would only block new logins;
	// the revocation makes outstanding tokens fail at the middleware.
	if s.revoker != nil {
		if err := s.revoker.RevokeUser(ctx, userID, 0); err != nil {
			log.Printf("Failed to revoke sessions for banned user %d: %v", userID, err)
		}
	}
	return nil
}

func (s *moderationService) UnbanUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Banned {
		return ErrNotBanned
	}

	if err := s.userRepo.SetBanned(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to unban user %d: %w", userID, err)
	}
	if s.revoker != nil {
		if err := s.revoker.RestoreUser(ctx, userID); err != nil {
			log.Printf("Failed to restore sessions for unbanned user %d: %v", userID, err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, userID, "Your account has been restored.", ""); err != nil {
			log.Printf("Failed to notify unbanned user %d: %v", userID, err)
		}
	}
	return nil
}

func (s *moderationService) AdjustCredits(ctx context.Context, userID uint, delta int64) error {
	return s.credits.ApplyDelta(ctx, userID, delta, models.ReasonAdminAdjustment, nil)
}
