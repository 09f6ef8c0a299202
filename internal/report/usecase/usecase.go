package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/report"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type reportUC struct {
	repo          report.Repository
	lowStockLimit int
	log           logger.ZapLogger
	now           func() time.Time
}

func NewReportUseCase(repo report.Repository, lowStockLimit int, log logger.ZapLogger) report.UseCase {
	return &reportUC{
		repo:          repo,
		lowStockLimit: lowStockLimit,
		log:           log,
		now:           time.Now,
	}
}

// Stats never fails the dashboard: periods whose reads error are reported
// as zero and the error is logged.
func (uc *reportUC) Stats(ctx context.Context, userID string) (*report.Stats, error) {
	now := uc.now()

	weekStart := report.StartOfWeek(now)
	prevWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := report.StartOfMonth(now)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	var (
		weekRevenue, prevWeekRevenue   decimal.Decimal
		monthRevenue, prevMonthRevenue decimal.Decimal
		weekCount, monthCount          int
	)

	// The four windows are independent reads; run them together.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		weekRevenue, weekCount = uc.revenue(gctx, userID, weekStart, now)
		return nil
	})
	g.Go(func() error {
		prevWeekRevenue, _ = uc.revenue(gctx, userID, prevWeekStart, weekStart)
		return nil
	})
	g.Go(func() error {
		monthRevenue, monthCount = uc.revenue(gctx, userID, monthStart, now)
		return nil
	})
	g.Go(func() error {
		prevMonthRevenue, _ = uc.revenue(gctx, userID, prevMonthStart, monthStart)
		return nil
	})
	_ = g.Wait()

	return &report.Stats{
		WeeklyRevenue:  weekRevenue,
		WeeklyChange:   report.PercentChange(weekRevenue, prevWeekRevenue),
		MonthlyRevenue: monthRevenue,
		MonthlyChange:  report.PercentChange(monthRevenue, prevMonthRevenue),
		WeeklyAverage:  averagePerSale(weekRevenue, weekCount),
		MonthlyAverage: averagePerSale(monthRevenue, monthCount),
	}, nil
}

func (uc *reportUC) revenue(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, int) {
	revenue, count, err := uc.repo.RevenueBetween(ctx, userID, from, to)
	if err != nil {
		uc.log.Error("report: revenue query failed",
			zap.String("user_id", userID),
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return decimal.Zero, 0
	}
	return revenue, count
}

func averagePerSale(revenue decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return revenue.DivRound(decimal.NewFromInt(int64(count)), 2)
}

func (uc *reportUC) BestSellingProduct(ctx context.Context, userID string) (*report.BestSeller, error) {
	return uc.repo.BestSeller(ctx, userID)
}

func (uc *reportUC) LowStockProducts(ctx context.Context, userID string) ([]model.Product, error) {
	return uc.repo.LowStock(ctx, userID, uc.lowStockLimit)
}
