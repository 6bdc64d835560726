package service

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

const (
	HealthOK    = "ok"
	HealthError = "error"

	healthTimeout = 5 * time.Second
)

// HealthCheck checks one dependency and returns a human readable message.
type HealthCheck func(ctx context.Context) (string, error)

type SystemService interface {
	Status(ctx context.Context) *transfer.SystemStatus
	Services() []transfer.Service
}

type systemService struct {
	cfg     config.Config
	log     *zap.Logger
	version string
	checks  map[string]HealthCheck
}

func NewSystemService(cfg config.Config, log *zap.Logger, version string, checks map[string]HealthCheck) SystemService {
	return &systemService{
		cfg:     cfg,
		log:     log,
		version: version,
		checks:  checks,
	}
}

// Status runs every check concurrently, each under its own timeout. A failing
// check is reported, never returned.
func (s *systemService) Status(ctx context.Context) *transfer.SystemStatus {
	status := &transfer.SystemStatus{
		Environment: transfer.SystemEnvironment{
			AppName:     s.cfg.AppName,
			AppVersion:  s.version,
			GoVersion:   runtime.Version(),
			Environment: s.cfg.AppEnv,
			URL:         s.cfg.AppURL,
		},
		Health:    make(map[string]transfer.HealthCheck, len(s.checks)),
		Technical: s.technical(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, healthTimeout)
			defer cancel()

			result := transfer.HealthCheck{Status: HealthOK}
			msg, err := check(cctx)
			if err != nil {
				s.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
				result.Status = HealthError
				msg = err.Error()
			}
			result.Message = msg

			mu.Lock()
			status.Health[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return status
}

func (s *systemService) technical() transfer.SystemTechnical {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	t := transfer.SystemTechnical{
		NumCPU:      runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		HeapInUse:   models.HumanFileSize(int64(mem.HeapInuse)),
		StoragePath: s.cfg.StoragePath,
	}
	if s.cfg.StoragePath == "" {
		return t
	}
	usage, err := diskUsage(s.cfg.StoragePath)
	if err != nil {
		s.log.Warn("disk usage unavailable", zap.String("path", s.cfg.StoragePath), zap.Error(err))
		return t
	}
	t.DiskUsage = usage
	return t
}

func newDiskUsage(total, free uint64) *transfer.DiskUsage {
	used := total - min(free, total)
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(used) / float64(total) * 100))
	}
	return &transfer.DiskUsage{
		Total:      models.HumanFileSize(int64(total)),
		Used:       models.HumanFileSize(int64(used)),
		Free:       models.HumanFileSize(int64(free)),
		Percentage: pct,
	}
}

// Services reports each integration the server can talk to. A service is
// active once its credentials are configured.
func (s *systemService) Services() []transfer.Service {
	oauth := func(p config.OAuthProvider) bool { return p.ClientID != "" && p.ClientSecret != "" }
	r2 := s.cfg.R2
	return []transfer.Service{
		{Name: string(models.ProviderTwitter), Group: "social", Active: oauth(s.cfg.Twitter)},
		{Name: "facebook", Group: "social", Active: oauth(s.cfg.Facebook)},
		{Name: string(models.ProviderMastodon), Group: "social", Active: oauth(s.cfg.Mastodon)},
		{Name: "r2", Group: "media", Active: r2.AccessKey != "" && r2.SecretKey != "" && r2.BucketName != ""},
	}
}
