package pyroscope

import (
	"context"
	"strings"

	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/fx"
)

type Service struct {
	cfg      *config.Configuration
	logger   *logger.Logger
	profiler *pyroscope.Profiler
}

// Module provides fx options for Pyroscope
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewPyroscopeService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks starts the profiler with the application and stops it on
// shutdown
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !svc.IsEnabled() {
				svc.logger.Info("Pyroscope profiling is disabled")
				return nil
			}

			pc := svc.cfg.Pyroscope
			profilerConfig := pyroscope.Config{
				ApplicationName: pc.ApplicationName,
				ServerAddress:   pc.ServerAddress,
				ProfileTypes:    svc.getProfileTypes(),
				SampleRate:      pc.SampleRate,
				DisableGCRuns:   pc.DisableGCRuns,
				Logger:          svc,
			}
			if pc.BasicAuthUser != "" {
				profilerConfig.BasicAuthUser = pc.BasicAuthUser
				profilerConfig.BasicAuthPassword = pc.BasicAuthPass
			}

			profiler, err := pyroscope.Start(profilerConfig)
			if err != nil {
				svc.logger.Errorw("failed to start pyroscope", "error", err)
				return err
			}
			svc.profiler = profiler

			svc.logger.Infow("pyroscope profiling started",
				"application_name", pc.ApplicationName,
				"server_address", pc.ServerAddress,
				"has_basic_auth", pc.BasicAuthUser != "",
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if svc.profiler == nil {
				return nil
			}
			svc.logger.Info("stopping pyroscope profiling")
			return svc.profiler.Stop()
		},
	})
}

// pyroscope.Logger
func (s *Service) Debugf(format string, args ...interface{}) {
	s.logger.Debugf("[pyroscope] "+format, args...)
}

func (s *Service) Infof(format string, args ...interface{}) {
	s.logger.Infof("[pyroscope] "+format, args...)
}

func (s *Service) Errorf(format string, args ...interface{}) {
	s.logger.Errorf("[pyroscope] "+format, args...)
}

func NewPyroscopeService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) IsEnabled() bool {
	return s.cfg.Pyroscope.Enabled
}

func (s *Service) getProfileTypes() []pyroscope.ProfileType {
	if len(s.cfg.Pyroscope.ProfileTypes) == 0 {
		return []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileGoroutines,
		}
	}

	var profileTypes []pyroscope.ProfileType
	for _, profileType := range s.cfg.Pyroscope.ProfileTypes {
		switch strings.ToLower(profileType) {
		case "cpu":
			profileTypes = append(profileTypes, pyroscope.ProfileCPU)
		case "inuse_objects":
			profileTypes = append(profileTypes, pyroscope.ProfileInuseObjects)
		case "alloc_objects":
			profileTypes = append(profileTypes, pyroscope.ProfileAllocObjects)
		case "inuse_space":
			profileTypes = append(profileTypes, pyroscope.ProfileInuseSpace)
		case "alloc_space":
			profileTypes = append(profileTypes, pyroscope.ProfileAllocSpace)
		case "goroutines":
			profileTypes = append(profileTypes, pyroscope.ProfileGoroutines)
		default:
			s.logger.Warnw("unknown pyroscope profile type", "type", profileType)
		}
	}
	return profileTypes
}
