package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	log "github.com/sirupsen/logrus"
)

type DashboardService struct {
	stats  StatsRepository
	prices *PriceUpdateService
	audit  AuditLog
}

func NewDashboardService(stats StatsRepository, prices *PriceUpdateService, audit AuditLog) *DashboardService {
	return &DashboardService{stats: stats, prices: prices, audit: audit}
}

func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	th := s.prices.Thresholds()
	inv, err := s.stats.InventoryStats(ctx, th.HighMin, th.MediumMin)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}

	out := &models.DashboardStats{Inventory: inv, Queue: s.prices.QueueStatus()}
	if s.audit != nil {
		last, err := s.audit.LastSyncRun(ctx)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			log.Warnf("dashboard: last sync run unavailable: %s", err)
		default:
			last.Results = nil
			out.LastSync = last
		}
	}
	return out, nil
}
