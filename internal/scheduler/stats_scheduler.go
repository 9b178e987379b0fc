package scheduler

import (
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	"github.com/robfig/cron/v3"
)

var (
	vendorStatuses = []model.VendorStatus{model.VendorStatusPending, model.VendorStatusApproved, model.VendorStatusRejected}
	orderStatuses  = []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusConfirmed,
		model.OrderStatusDelivered,
		model.OrderStatusCancelled,
	}
)

// StatsScheduler periodically recomputes the marketplace gauges exposed on /metrics.
type StatsScheduler struct {
	cron        *cron.Cron
	spec        string
	vendorRepo  repository.VendorRepository
	listingRepo repository.ListingRepository
	orderRepo   repository.OrderRepository
}

func NewStatsScheduler(
	spec string,
	vendorRepo repository.VendorRepository,
	listingRepo repository.ListingRepository,
	orderRepo repository.OrderRepository,
) *StatsScheduler {
	return &StatsScheduler{
		cron:        cron.New(),
		spec:        spec,
		vendorRepo:  vendorRepo,
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
	}
}

// Start refreshes once immediately, then on every tick of the cron spec.
func (s *StatsScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Refresh); err != nil {
		logger.Error("Failed to add cron job for marketplace stats", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.Refresh()
	s.cron.Start()
	logger.Info("Stats scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *StatsScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Stats scheduler stopped")
}

// Refresh recomputes every gauge. A failed query leaves that gauge at its last value.
func (s *StatsScheduler) Refresh() {
	if counts, err := s.vendorRepo.CountByStatus(); err != nil {
		logger.Error("Failed to count vendors by status", err)
	} else {
		for _, status := range vendorStatuses {
			metrics.VendorsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
		}
	}

	if counts, err := s.orderRepo.CountByStatus(); err != nil {
		logger.Error("Failed to count orders by status", err)
	} else {
		for _, status := range orderStatuses {
			metrics.OrdersByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
		}
	}

	if visible, err := s.listingRepo.CountVisible(); err != nil {
		logger.Error("Failed to count visible listings", err)
	} else {
		metrics.VisibleListings.Set(float64(visible))
	}

	logger.Debug("Marketplace stats refreshed")
}
