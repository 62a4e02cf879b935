package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic_backoffice/models"
	"clinic_backoffice/types"

	"gorm.io/gorm"
)

// EntryKind names a table participating in the validation workflow.
type EntryKind string

const (
	KindRevenue      EntryKind = "revenue"
	KindExpense      EntryKind = "expense"
	KindLeave        EntryKind = "leave"
	KindCompensation EntryKind = "compensation"
	KindProcedure    EntryKind = "procedure"
)

func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(s) {
	case KindRevenue, KindExpense, KindLeave, KindCompensation, KindProcedure:
		return EntryKind(s), nil
	}
	return "", fmt.Errorf("unknown entry kind %q", s)
}

type ValidationStore interface {
	// GetDecision returns gorm.ErrRecordNotFound when the entry is absent.
	GetDecision(ctx context.Context, kind EntryKind, id string) (*models.ValidationDecision, error)
	// Transition commits the decision only if the entry is still pending,
	// and reports whether a row was actually updated.
	Transition(ctx context.Context, kind EntryKind, id, to, validatorID string, at time.Time, note string) (bool, error)
	CountByStatus(ctx context.Context, kind EntryKind, status, from, to string) (int64, error)
	CountPending(ctx context.Context, kind EntryKind) (int64, error)
}

// ValidationService is the generic pending/approved/rejected machine shared
// by revenue, expense, leave, compensation and procedure entries. Decisions
// are terminal.
type ValidationService struct {
	store ValidationStore
	now   func() time.Time
}

func NewValidationService(store ValidationStore) *ValidationService {
	return &ValidationService{store: store, now: time.Now}
}

// Submit stamps the initial pending state on a decision value. Entries are
// born pending and only ever move once.
func Submit(d *models.ValidationDecision) {
	d.Status = models.StatusPending
	d.ValidatedBy = nil
	d.ValidatedAt = nil
	d.ValidationNote = ""
}

func (s *ValidationService) Approve(ctx context.Context, kind EntryKind, id, validatorID, note string) error {
	return s.decide(ctx, kind, id, validatorID, note, models.StatusApproved)
}

func (s *ValidationService) Reject(ctx context.Context, kind EntryKind, id, validatorID, note string) error {
	return s.decide(ctx, kind, id, validatorID, note, models.StatusRejected)
}

func (s *ValidationService) decide(ctx context.Context, kind EntryKind, id, validatorID, note, to string) error {
	decision, err := s.store.GetDecision(ctx, kind, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewError(types.ErrCodeNotFound, "Entry not found").
			With("kind", string(kind)).With("id", id)
	}
	if err != nil {
		return err
	}
	if decision.Status != models.StatusPending {
		return types.NewError(types.ErrCodeInvalidTransition, "Entry is no longer pending").
			With("kind", string(kind)).With("id", id).
			With("current_status", decision.Status)
	}

	committed, err := s.store.Transition(ctx, kind, id, to, validatorID, s.now(), note)
	if err != nil {
		return err
	}
	if !committed {
		// Another validator decided between our read and the guarded write.
		return types.NewError(types.ErrCodeConflict, "A decision was already recorded for this entry").
			With("kind", string(kind)).With("id", id)
	}
	return nil
}

// ApprovalRate returns approved / (approved + rejected) over a period, or 0
// when nothing has been decided.
func (s *ValidationService) ApprovalRate(ctx context.Context, kind EntryKind, from, to string) (float64, error) {
	approved, err := s.store.CountByStatus(ctx, kind, models.StatusApproved, from, to)
	if err != nil {
		return 0, err
	}
	rejected, err := s.store.CountByStatus(ctx, kind, models.StatusRejected, from, to)
	if err != nil {
		return 0, err
	}
	decided := approved + rejected
	if decided == 0 {
		return 0, nil
	}
	return float64(approved) / float64(decided), nil
}

func (s *ValidationService) PendingCount(ctx context.Context, kind EntryKind) (int64, error) {
	return s.store.CountPending(ctx, kind)
}
