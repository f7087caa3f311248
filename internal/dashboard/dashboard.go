// Package dashboard combines the user's profile, open todo count and
// settings into a single Dashboard value.
package dashboard

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
	"todosearch/internal/rx"
)

var logger = loggo.GetLogger("todosearch.dashboard")

// Source provides the remote parts of a dashboard.
type Source interface {
	Profile(ctx context.Context, userID int) (domain.Profile, error)
	NotificationCount(ctx context.Context, userID int) (int, error)
}

// SettingsFunc provides the local part of a dashboard.
type SettingsFunc func(ctx context.Context) (domain.Settings, error)

// Service loads dashboards and publishes them on Updates.
type Service struct {
	source   Source
	settings SettingsFunc
	userID   int
	bus      eventbus.EventBus

	updates *rx.Subject[domain.Dashboard]

	mu   sync.Mutex
	last *domain.Dashboard
}

// NewService returns a service for userID. bus may be nil.
func NewService(source Source, settings SettingsFunc, userID int, bus eventbus.EventBus) *Service {
	return &Service{
		source:   source,
		settings: settings,
		userID:   userID,
		bus:      bus,
		updates:  rx.NewSubject[domain.Dashboard](),
	}
}

// Updates emits every successfully loaded dashboard.
func (s *Service) Updates() *rx.Subject[domain.Dashboard] {
	return s.updates
}

// Last returns the most recently loaded dashboard.
func (s *Service) Last() (domain.Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Dashboard{}, false
	}
	return *s.last, true
}

// Refresh loads all parts concurrently. Either every part loads and the
// combined dashboard is emitted, or the first failure cancels the others
// and nothing is emitted.
func (s *Service) Refresh(ctx context.Context) (domain.Dashboard, error) {
	var d domain.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.source.Profile(gctx, s.userID)
		if err != nil {
			return errors.Trace(err)
		}
		d.Profile = p
		return nil
	})
	g.Go(func() error {
		n, err := s.source.NotificationCount(gctx, s.userID)
		if err != nil {
			return errors.Trace(err)
		}
		d.Notifications = n
		return nil
	})
	g.Go(func() error {
		st, err := s.settings(gctx)
		if err != nil {
			return errors.Annotate(err, "settings")
		}
		d.Settings = st
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warningf("dashboard refresh failed: %v", err)
		if s.bus != nil {
			s.bus.Publish(eventbus.ErrorEvent{Message: "dashboard refresh failed", Err: err})
		}
		return domain.Dashboard{}, errors.Annotate(err, "refresh dashboard")
	}

	s.mu.Lock()
	s.last = &d
	s.mu.Unlock()

	logger.Debugf("dashboard loaded for user %d", s.userID)
	s.updates.Next(d)
	if s.bus != nil {
		s.bus.Publish(eventbus.DashboardLoadedEvent{Dashboard: d})
	}
	return d, nil
}

// StaticSettings returns a SettingsFunc that always yields st.
func StaticSettings(st domain.Settings) SettingsFunc {
	return func(context.Context) (domain.Settings, error) {
		return st, nil
	}
}
