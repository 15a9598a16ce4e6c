package submissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lacquer-social/vernis/countstore"
	"github.com/lacquer-social/vernis/moderation"

	"gorm.io/gorm"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxMediaURLs         = 10
	maxRejectionReason   = 500

	// trend score assigned when the reviewer does not pick one
	defaultTrendScore = 0.5
)

// Service is the submission lifecycle state machine. It creates records with
// an initial status derived from the moderation verdict, and applies
// reviewer and submitter transitions. Role checks (moderator/admin) happen
// at the transport boundary; ownership checks happen here.
type Service struct {
	db             *gorm.DB
	engine         *moderation.Engine
	counters       countstore.CountStore
	logger         *slog.Logger
	checkRelevance bool
}

func NewService(db *gorm.DB, engine *moderation.Engine, counters countstore.CountStore, logger *slog.Logger, checkRelevance bool) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&Submission{}, &PublishedEntry{}); err != nil {
		return nil, fmt.Errorf("migrating submission models: %w", err)
	}
	return &Service{
		db:             db,
		engine:         engine,
		counters:       counters,
		logger:         logger,
		checkRelevance: checkRelevance,
	}, nil
}

type CreateRequest struct {
	SubmitterID string
	Title       string
	Description string
	MediaURLs   []string
	Tags        []string
	DesignType  string
	Difficulty  string
	PriceTier   string
	Materials   []string
}

func (req *CreateRequest) validate() error {
	if req.SubmitterID == "" {
		return &ValidationError{Field: "submitterId", Message: "required"}
	}
	if req.Title == "" {
		return &ValidationError{Field: "title", Message: "required"}
	}
	if len(req.Title) > maxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("longer than %d characters", maxTitleLength)}
	}
	if len(req.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("longer than %d characters", maxDescriptionLength)}
	}
	if len(req.MediaURLs) == 0 {
		return &ValidationError{Field: "mediaUrls", Message: "at least one required"}
	}
	if len(req.MediaURLs) > maxMediaURLs {
		return &ValidationError{Field: "mediaUrls", Message: fmt.Sprintf("more than %d items", maxMediaURLs)}
	}
	return nil
}

// Create moderates the submitted media and persists the submission with its
// initial status: pending when the verdict is safe, flagged otherwise.
//
// There is no retry around the persist: a failed write after a successful
// (costed) evaluation leaves a cost record with no submission, consistent
// with the fail-open philosophy elsewhere.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Submission, *moderation.Verdict, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	verdict, err := s.engine.Evaluate(ctx, req.SubmitterID, req.MediaURLs, s.checkRelevance)
	if err != nil {
		return nil, nil, fmt.Errorf("moderating submission: %w", err)
	}

	status := StatusFlagged
	if verdict.Safe {
		status = StatusPending
	}

	sub := Submission{
		SubmitterID: req.SubmitterID,
		Status:      status,
		Title:       req.Title,
		Description: req.Description,
		MediaURLs:   req.MediaURLs,
		Tags:        req.Tags,
		DesignType:  req.DesignType,
		Difficulty:  req.Difficulty,
		PriceTier:   req.PriceTier,
		Materials:   req.Materials,
		Flags: ModerationFlags{
			SpamScore:          verdict.SpamScore,
			InappropriateScore: verdict.InappropriateScore,
		},
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, nil, fmt.Errorf("persisting submission: %w", err)
	}

	// feeds the sliding-window spam heuristic for subsequent submissions
	if err := s.counters.Increment(ctx, "submission", req.SubmitterID); err != nil {
		s.logger.Warn("submission counter increment failed", "submitter", req.SubmitterID, "err", err)
	}

	s.logger.Info("submission created",
		"id", sub.ID,
		"submitter", sub.SubmitterID,
		"status", sub.Status,
		"reasons", verdict.Reasons,
	)
	submissionCreatedCount.WithLabelValues(string(status)).Inc()
	return &sub, verdict, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Submission, error) {
	var sub Submission
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading submission: %w", err)
	}
	return &sub, nil
}

// List pages submissions by descending id; pass cursor=0 for the first page.
// An empty status matches all statuses.
func (s *Service) List(ctx context.Context, status Status, limit int, cursor uint) ([]Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("id desc").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var subs []Submission
	if err := q.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return subs, nil
}

// Approve publishes the submission into the given collection and marks it
// approved. The first media URL becomes both display and thumbnail image.
// A second approve fails with ErrAlreadyReviewed rather than double-creating
// an entry.
func (s *Service) Approve(ctx context.Context, id uint, reviewerID, collectionID string, trendScore float64) (*Submission, error) {
	if collectionID == "" {
		return nil, &ValidationError{Field: "collectionId", Message: "required"}
	}
	if trendScore <= 0 {
		trendScore = defaultTrendScore
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	entry := PublishedEntry{
		CollectionID: collectionID,
		Title:        sub.Title,
		Description:  sub.Description,
		ImageURL:     sub.MediaURLs[0],
		ThumbnailURL: sub.MediaURLs[0],
		Tags:         sub.Tags,
		DesignType:   sub.DesignType,
		Difficulty:   sub.Difficulty,
		PriceTier:    sub.PriceTier,
		Materials:    sub.Materials,
		TrendScore:   trendScore,
		Source:       SourceUserSubmission,
		SubmitterID:  sub.SubmitterID,
		CuratedBy:    reviewerID,
		CreatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("publishing entry: %w", err)
		}
		sub.Status = StatusApproved
		sub.ReviewedAt = &now
		sub.ReviewedBy = &reviewerID
		sub.ApprovedEntryID = &entry.ID
		if err := tx.Save(sub).Error; err != nil {
			return fmt.Errorf("updating submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission approved", "id", sub.ID, "reviewer", reviewerID, "entry", entry.ID, "collection", collectionID)
	submissionReviewedCount.WithLabelValues("approved").Inc()
	return sub, nil
}

// Reject marks the submission rejected with a non-empty, length-bounded
// reason.
func (s *Service) Reject(ctx context.Context, id uint, reviewerID, reason string) (*Submission, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "required"}
	}
	if len(reason) > maxRejectionReason {
		return nil, &ValidationError{Field: "reason", Message: fmt.Sprintf("longer than %d characters", maxRejectionReason)}
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	sub.Status = StatusRejected
	sub.ReviewedAt = &now
	sub.ReviewedBy = &reviewerID
	sub.RejectionReason = &reason
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("updating submission: %w", err)
	}

	s.logger.Info("submission rejected", "id", sub.ID, "reviewer", reviewerID)
	submissionReviewedCount.WithLabelValues("rejected").Inc()
	return sub, nil
}

// Withdraw lets the original submitter pull a submission that has not been
// reviewed yet. Withdrawal from a terminal state is refused; the reviewed
// stamps record who withdrew and when.
func (s *Service) Withdraw(ctx context.Context, id uint, requesterID string) (*Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubmitterID != requesterID {
		return nil, ErrNotAuthorized
	}
	if sub.Status.Terminal() {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	sub.Status = StatusWithdrawn
	sub.ReviewedAt = &now
	sub.ReviewedBy = &requesterID
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("updating submission: %w", err)
	}

	s.logger.Info("submission withdrawn", "id", sub.ID, "submitter", requesterID)
	submissionReviewedCount.WithLabelValues("withdrawn").Inc()
	return sub, nil
}
