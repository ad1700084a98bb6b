package aidb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// SourceConfig describes one refreshable corpus.
type SourceConfig struct {
	Name          string
	URL           string
	FilePath      string
	ETagPath      string
	RefreshPeriod time.Duration
	HeadTimeout   time.Duration
	GetTimeout    time.Duration
}

// SourceStats reports a single source's last refresh outcome, surfaced by
// Database.Stats() for operational visibility.
type SourceStats struct {
	Name        string
	LastRefresh time.Time
	LastError   string
	EntryCount  int
}

// source couples a SourceConfig with the HTTP client, breaker, and logger
// used to keep it fresh.
type source struct {
	cfg     SourceConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger

	loader func(ctx context.Context, path string) error
}

func newSource(cfg SourceConfig, logger zerolog.Logger) *source {
	name := cfg.Name
	return &source{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.With().Str("component", "aidb").Str("source", name).Logger(),
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 4 && counts.TotalFailures >= 3
			},
		}),
	}
}

// refresh runs one cycle of the refresh protocol: HEAD for an ETag, compare
// with the stored tag, GET and persist on mismatch or first run, then invoke
// the source's loader. The whole cycle is retried with backoff sized to the
// source's own refresh cadence (transient network failures only) and guarded
// by a circuit breaker so a consistently failing upstream stops being
// hammered.
func (s *source) refresh(ctx context.Context) error {
	return retryTransient(ctx, policyFor(s.cfg.RefreshPeriod), s.logger, func() error {
		_, err := s.breaker.Execute(func() (any, error) {
			return nil, s.refreshOnce(ctx)
		})
		return err
	})
}

func (s *source) refreshOnce(ctx context.Context) error {
	remoteETag, err := s.fetchETag(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch remote ETag, will retry next cycle")
		return err
	}

	localETag, haveLocal := s.readLocalETag()
	_, statErr := os.Stat(s.cfg.FilePath)
	needsFetch := statErr != nil || !haveLocal || remoteETag == "" || remoteETag != localETag

	if needsFetch {
		if err := s.fetchAndStore(ctx, remoteETag); err != nil {
			return err
		}
	}

	if err := s.loader(ctx, s.cfg.FilePath); err != nil {
		s.logger.Error().Err(err).Msg("loader failed, forcing remote refetch next cycle")
		_ = os.Remove(s.cfg.FilePath)
		_ = os.Remove(s.cfg.ETagPath)
		return err
	}
	return nil
}

func (s *source) fetchETag(ctx context.Context) (string, error) {
	hctx, cancel := context.WithTimeout(ctx, positiveOrDefault(s.cfg.HeadTimeout, 15*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(hctx, http.MethodHead, s.cfg.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", errors.New("aidb: HEAD returned " + resp.Status)
	}
	return resp.Header.Get("ETag"), nil
}

func (s *source) readLocalETag() (string, bool) {
	b, err := os.ReadFile(s.cfg.ETagPath)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *source) fetchAndStore(ctx context.Context, etag string) error {
	gctx, cancel := context.WithTimeout(ctx, positiveOrDefault(s.cfg.GetTimeout, 90*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(gctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return errors.New("aidb: GET returned " + resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.FilePath), 0o755); err != nil {
		return err
	}
	tmp := s.cfg.FilePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.cfg.FilePath); err != nil {
		return err
	}

	if etag != "" {
		if err := os.WriteFile(s.cfg.ETagPath, []byte(etag), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func positiveOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
