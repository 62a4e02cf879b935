package services

import (
	"context"
	"math"
	"time"

	"clinic_backoffice/models"

	"golang.org/x/sync/errgroup"
)

type ProcedureStore interface {
	ListApprovedByPerformer(ctx context.Context, userID, from, to string) ([]models.ProcedureRecord, error)
}

type CompensationStore interface {
	SumApproved(ctx context.Context, userID, from, to string) (float64, error)
}

// PeriodCompensation is the reconciled service-fee total for one user and
// calendar month.
type PeriodCompensation struct {
	UserID         string  `json:"user_id"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
	StoredTotal    float64 `json:"stored_total"`
	ComputedTotal  float64 `json:"computed_total"`
	Total          float64 `json:"total"`
	ProcedureCount int     `json:"procedure_count"`
}

// CompensationService derives service-fee amounts from approved procedure
// records and reconciles them against the persisted ledger. Pure read path:
// it never mutates ledger state.
type CompensationService struct {
	procedures    ProcedureStore
	ledger        CompensationStore
	fallbackRates map[string]float64 // role -> percent of tariff
}

func NewCompensationService(procedures ProcedureStore, ledger CompensationStore, fallbackRates map[string]float64) *CompensationService {
	return &CompensationService{procedures: procedures, ledger: ledger, fallbackRates: fallbackRates}
}

// DeriveForPeriod returns max(stored ledger sum, recomputed sum) for the
// month. Taking the larger of the two is the documented reconciliation rule:
// staff are never under-credited, even when the two sources disagree. Both
// component sums are exposed so callers can still see a discrepancy.
func (s *CompensationService) DeriveForPeriod(ctx context.Context, userID, role string, month time.Month, year int) (*PeriodCompensation, error) {
	from, to := PeriodBounds(month, year)

	var (
		stored     float64
		procedures []models.ProcedureRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.ledger.SumApproved(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		procedures, err = s.procedures.ListApprovedByPerformer(gctx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var computed float64
	for _, p := range procedures {
		percent := p.ProcedureType.FeePercent
		if percent <= 0 {
			percent = s.fallbackRates[role]
		}
		computed += p.Tariff * percent / 100
	}

	return &PeriodCompensation{
		UserID:         userID,
		Month:          int(month),
		Year:           year,
		StoredTotal:    stored,
		ComputedTotal:  computed,
		Total:          math.Max(stored, computed),
		ProcedureCount: len(procedures),
	}, nil
}

// GrowthPercentage compares two period totals, rounded to one decimal.
// A positive current against a zero previous reads as 100% growth.
func GrowthPercentage(current, previous float64) float64 {
	switch {
	case previous > 0:
		return math.Round((current-previous)/previous*1000) / 10
	case current > 0:
		return 100
	default:
		return 0
	}
}

// PeriodBounds returns the first and last calendar dates of the month.
func PeriodBounds(month time.Month, year int) (from, to string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(models.DateLayout), last.Format(models.DateLayout)
}
