package memory

import (
	"context"
	"sort"
	"time"

	"catchup-feed/internal/domain/entity"
)

func cloneAlert(a *entity.Alert) *entity.Alert {
	cp := *a
	cp.Entities = append([]entity.NamedEntity(nil), a.Entities...)
	cp.Tags = append([]string(nil), a.Tags...)
	cp.Channels = append([]entity.Channel(nil), a.Channels...)
	cp.Results = append([]entity.ChannelResult(nil), a.Results...)
	return &cp
}

func (s *Store) PutAlert(ctx context.Context, a *entity.Alert) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAlertID++
	a.ID = s.nextAlertID
	a.CreatedAt = time.Now()
	s.alerts[a.ID] = cloneAlert(a)
	return nil
}

func (s *Store) UpdateAlertStatus(ctx context.Context, alertID int64, status entity.AlertStatus, results []entity.ChannelResult, sentAt *time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[alertID]
	if !ok {
		return entity.ErrNotFound
	}
	a.Status = status
	a.Results = append([]entity.ChannelResult(nil), results...)
	a.SentAt = sentAt
	return nil
}

func (s *Store) ListRecentAlerts(ctx context.Context, window time.Duration, limit int) ([]*entity.Alert, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-window)

	var out []*entity.Alert
	for _, a := range s.alerts {
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountAlertsSince(ctx context.Context, since time.Time) (int, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.alerts {
		if !a.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) LastAlertForCategory(ctx context.Context, category string) (*entity.Alert, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *entity.Alert
	for _, a := range s.alerts {
		if a.Category != category {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneAlert(latest), nil
}
