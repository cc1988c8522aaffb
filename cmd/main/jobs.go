package main

import (
	"context"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/models"
	"market-dashboard/src/server"
	"market-dashboard/src/utils"
)

const (
	jobGroups = "groups"
	jobChart  = "chart"
)

// registerJobs schedules the groups refresh and, while a tracked market is
// open, the reload of the selected chart.
func registerJobs(s *utils.RefreshScheduler, cfg *models.MConfig, deps server.Dependencies, ex interfaces.IDataExchanger) error {
	refreshGroups := func(ctx context.Context) error {
		groups, err := deps.Groups.Refresh(ctx)
		if err != nil {
			return err
		}
		tickers, err := deps.Groups.Tickers(ctx)
		if err != nil {
			return err
		}
		s.TrackTickers(tickers)
		ex.Broadcast(models.MDashboardEvent{
			Type:      models.EventGroupsRefreshed,
			Payload:   groups,
			Timestamp: time.Now().Unix(),
		})
		return nil
	}

	// A group whose viewer is loading right now is skipped; the viewer's
	// load broadcasts itself.
	refreshChart := func(ctx context.Context) error {
		if !s.AnyMarketOpen(time.Now()) {
			return nil
		}
		var failed error
		for _, group := range deps.Charts.Groups() {
			view, err := deps.Charts.Refresh(ctx, group)
			if helpers.IsStale(err) {
				continue
			}
			if err != nil {
				failed = err
				continue
			}
			ex.UpdateChartView(group, view)
			ex.Broadcast(models.MDashboardEvent{
				Type:              models.EventChartLoaded,
				Group:             group,
				Payload:           view,
				Timestamp:         time.Now().Unix(),
				ProcessingMetrics: deps.Facade.Metrics(),
			})
		}
		return failed
	}

	if err := s.Register(cfg.Refresh.GroupsCron, jobGroups, refreshGroups); err != nil {
		return err
	}
	if err := s.Register(cfg.Refresh.GroupsCron, jobChart, refreshChart); err != nil {
		return err
	}

	go s.RunNow(jobGroups, refreshGroups)
	return nil
}
