package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// DashboardSummary returns the five global counters. activeBatches counts
// status In-Process or On-Hold; releasedToday counts releases since local
// midnight.
func (s *Service) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	out := &DashboardSummary{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Customer{}).Count(&out.ActiveCustomers).Error; err != nil {
		return nil, apierr.Internal("count customers: %v", err)
	}
	err := db.Model(&model.Batch{}).
		Where("status IN ?", []string{string(model.BatchInProcess), string(model.BatchOnHold)}).
		Count(&out.ActiveBatches).Error
	if err != nil {
		return nil, apierr.Internal("count active batches: %v", err)
	}
	err = db.Model(&model.Deviation{}).
		Where("status IN ?", []string{model.DeviationOpen, model.DeviationInProgress}).
		Count(&out.OpenDeviations).Error
	if err != nil {
		return nil, apierr.Internal("count open deviations: %v", err)
	}
	if err := db.Model(&model.Sample{}).Count(&out.LabSamples).Error; err != nil {
		return nil, apierr.Internal("count samples: %v", err)
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = db.Model(&model.Batch{}).
		Where("released_at >= ?", midnight).
		Count(&out.ReleasedToday).Error
	if err != nil {
		return nil, apierr.Internal("count released today: %v", err)
	}

	return out, nil
}

// CustomerBatchDashboard returns per-customer batch status breakdowns for
// the batches visible to the caller. lastActivity is the humanized time
// since the most recently updated batch.
func (s *Service) CustomerBatchDashboard(ctx context.Context, scope auth.Scope) ([]CustomerDashboardRow, error) {
	var customers []model.Customer
	if err := s.db.WithContext(ctx).Order("name").Find(&customers).Error; err != nil {
		return nil, apierr.Internal("list customers: %v", err)
	}

	q := s.db.WithContext(ctx).Model(&model.Batch{})
	if !scope.Unrestricted {
		if len(scope.BatchIDs) == 0 {
			return []CustomerDashboardRow{}, nil
		}
		q = q.Where("id IN ?", scope.IDs())
	}
	var batches []model.Batch
	if err := q.Find(&batches).Error; err != nil {
		return nil, apierr.Internal("list batches: %v", err)
	}

	type agg struct {
		counts     SummaryCounts
		total      int
		lastUpdate time.Time
	}
	byCustomer := make(map[string]*agg)
	for _, b := range batches {
		a := byCustomer[b.CustomerID]
		if a == nil {
			a = &agg{}
			byCustomer[b.CustomerID] = a
		}
		a.counts.bucket(b.Status)
		a.total++
		if b.UpdatedAt.After(a.lastUpdate) {
			a.lastUpdate = b.UpdatedAt
		}
	}

	rows := []CustomerDashboardRow{}
	for _, c := range customers {
		a := byCustomer[c.ID]
		if a == nil {
			continue
		}
		rows = append(rows, CustomerDashboardRow{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			Counts:       a.counts,
			TotalBatches: a.total,
			LastActivity: humanizeSince(a.lastUpdate, time.Now()),
		})
	}
	return rows, nil
}

// humanizeSince renders the duration since t as a coarse relative phrase.
func humanizeSince(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minute(s) ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hour(s) ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d day(s) ago", int(d.Hours()/24))
	}
}
