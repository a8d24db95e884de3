package spectra

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	stan "github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spectraproject/spectra/internal/common/admission"
	"github.com/spectraproject/spectra/internal/common/auth"
	"github.com/spectraproject/spectra/internal/common/circuitbreaker"
	"github.com/spectraproject/spectra/internal/common/eventstream"
	"github.com/spectraproject/spectra/internal/common/health"
	"github.com/spectraproject/spectra/internal/common/healthmonitor"
	"github.com/spectraproject/spectra/internal/common/retrying"
	"github.com/spectraproject/spectra/internal/spectra/configuration"
	"github.com/spectraproject/spectra/internal/spectra/estimator"
	"github.com/spectraproject/spectra/internal/spectra/metrics"
	"github.com/spectraproject/spectra/internal/spectra/permissions"
	"github.com/spectraproject/spectra/internal/spectra/repository"
	"github.com/spectraproject/spectra/internal/spectra/scheduler"
)

// Serve wires up and runs the scheduler until ctx is cancelled or a
// component fails.
func Serve(ctx context.Context, config *configuration.SpectraConfig, healthChecks *health.MultiChecker) error {
	log.Info("Spectra scheduler starting")
	defer log.Info("Spectra scheduler shutting down")

	if err := validateConfig(config); err != nil {
		return err
	}

	// startupCompleteCheck.MarkComplete() is called once recovery is done
	// and all services are running.
	startupCompleteCheck := health.NewStartupCompleteChecker()
	healthChecks.Add(startupCompleteCheck)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Job store: redis when configured, in-memory otherwise.
	var repo repository.JobRepository
	if len(config.Redis.Addrs) > 0 {
		db := redis.NewUniversalClient(&config.Redis)
		defer func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Error("failed to close redis client")
			}
		}()
		redisRepo := repository.NewRedisJobRepository(db)
		healthChecks.Add(checkerFunc(redisRepo.Health))
		repo = redisRepo
	} else {
		log.Warn("no redis configured; jobs will not survive restarts")
		repo = repository.NewInMemoryJobRepository()
	}

	// Event bus: NATS Streaming when configured.
	var events eventstream.EventStream = eventstream.NoOpEventStream{}
	if config.Nats.Url != "" {
		conn, err := stan.Connect(config.Nats.ClusterId, config.Nats.ClientId, stan.NatsURL(config.Nats.Url))
		if err != nil {
			return errors.Wrap(err, "failed to connect to NATS Streaming")
		}
		stream := eventstream.NewStanEventStream(conn, config.Nats.Subject)
		defer func() {
			if err := stream.Close(); err != nil {
				log.WithError(err).Error("failed to close event stream")
			}
		}()
		events = stream
	}

	eventsMonitor := healthmonitor.NewRecoveringMonitor(
		"event-stream", config.Recovery.FailureThreshold, config.Recovery.RecoveryTimeout)
	healthChecks.Add(health.NewMonitorChecker(eventsMonitor))

	admissionController := admission.NewController(config.Scheduling.Capacity)
	prometheus.MustRegister(eventsMonitor, admissionController)

	checker, err := configureAuth(&config.Auth)
	if err != nil {
		return err
	}

	service := scheduler.NewService(
		scheduler.Config{
			Workers:             config.Scheduling.Workers,
			PollInterval:        config.Scheduling.PollInterval,
			AdmissionCostPerJob: config.Scheduling.AdmissionCostPerJob,
		},
		checker,
		repo,
		estimator.New(config.Estimation, admissionController.Utilisation),
		admissionController,
		circuitbreaker.New("job-store", config.CircuitBreaker.FailureThreshold, config.CircuitBreaker.OpenDuration),
		retrying.New(config.Retry.MaxRetries, config.Retry.BaseDelay, config.Retry.Multiplier),
		eventsMonitor,
		events,
		&scheduler.SimulatedExecutor{StepDuration: config.Scheduling.SimulatedStepDuration},
		metrics.New(prometheus.DefaultRegisterer),
		nil,
	)

	// Rebuild queue state before accepting dispatch work.
	if err := service.RestoreFromStore(ctx); err != nil {
		return err
	}

	g.Go(func() error {
		return service.Run(ctx)
	})

	// While the bus is in recovery, probe it with heartbeats so it can be
	// declared healthy again without waiting for job traffic.
	g.Go(func() error {
		ticker := time.NewTicker(config.Recovery.ProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				err := eventsMonitor.Probe(func() error {
					return events.Publish(&eventstream.Event{
						Id:      uuid.NewString(),
						Topic:   eventstream.TopicHeartbeat,
						Created: time.Now(),
					})
				})
				if err != nil {
					log.WithError(err).Debug("event stream probe failed")
				}
			}
		}
	})

	startupCompleteCheck.MarkComplete()
	return g.Wait()
}

func configureAuth(config *configuration.AuthConfig) (auth.PermissionChecker, error) {
	defaultRole := permissions.RoleGuest
	if config.DefaultRole != "" {
		role, ok := permissions.RoleByName(config.DefaultRole)
		if !ok {
			return nil, errors.Errorf("unknown default role %q", config.DefaultRole)
		}
		defaultRole = role
	}
	provider := auth.NewStaticRoleProvider(defaultRole)
	for userID, roleName := range config.UserRoles {
		role, ok := permissions.RoleByName(roleName)
		if !ok {
			return nil, errors.Errorf("unknown role %q for user %q", roleName, userID)
		}
		provider.SetRole(userID, role)
	}
	return auth.NewRolePermissionChecker(provider), nil
}

func validateConfig(config *configuration.SpectraConfig) error {
	if config.Scheduling.Capacity <= 0 {
		return errors.Errorf("scheduling capacity must be greater than 0: is %d", config.Scheduling.Capacity)
	}
	if config.Recovery.ProbeInterval <= 0 {
		return errors.Errorf("recovery probe interval must be greater than 0: is %s", config.Recovery.ProbeInterval)
	}
	return nil
}

// checkerFunc adapts a plain health function to the Checker interface.
type checkerFunc func() error

func (f checkerFunc) Check() error { return f() }
