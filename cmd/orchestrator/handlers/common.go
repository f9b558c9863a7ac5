package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/setup"
)

// GlobalOptions are the settings shared by every command.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Verbosity  int
	// Overrides are configuration values set by flags, keyed like
	// "queue.prefix". They take precedence over file and environment.
	Overrides map[string]any
}

// Factory function variables, replaceable in tests.
var (
	loadConfig = config.Load

	newProvider = func(ctx context.Context, cfg *config.Config) (*cloud.Provider, error) {
		return cloud.LoadAWS(ctx, cloud.AWSOptions{
			Region:          cfg.Provider.AWS.Region,
			AccessKeyID:     cfg.Provider.AWS.AccessKeyID,
			SecretAccessKey: cfg.Provider.AWS.SecretAccessKey,
			EndpointURL:     cfg.Provider.AWS.EndpointURL,
		})
	}

	newFactory = setup.NewFactory
)

// session is what every cloud-facing command needs.
type session struct {
	ctx      context.Context
	log      logr.Logger
	cfg      *config.Config
	provider *cloud.Provider
	flush    func()
}

func (s *session) close() {
	if s.flush != nil {
		s.flush()
	}
}

func openSession(ctx context.Context, opts GlobalOptions) (*session, error) {
	log, flush, err := NewLogger(os.Stderr, opts.LogLevel, opts.LogFormat, opts.Verbosity)
	if err != nil {
		return nil, err
	}
	s := &session{log: log, flush: flush}

	cfg, err := loadConfig(config.LoadOptions{File: opts.ConfigFile, Overrides: opts.Overrides})
	if err != nil {
		s.close()
		return nil, err
	}
	s.cfg = cfg

	s.ctx = logr.NewContext(ctx, log)
	p, err := newProvider(s.ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.provider = p
	log.V(1).Info("provider ready", "provider", p.String())
	return s, nil
}

// ParseKinds maps kind names to resource types. Names are case-insensitive.
func ParseKinds(names []string) ([]resource.Type, error) {
	kinds := make([]resource.Type, 0, len(names))
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := resource.TypeFromString(part)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func notReady(r *setup.Report) []string {
	var out []string
	for _, o := range r.Outcomes {
		if !o.Ready {
			out = append(out, o.Kind.String())
		}
	}
	return out
}

func wrapRunError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
