// Package backend builds pipelines for the configured playback engine.
package backend

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session"
	"github.com/osa030/seekbox/internal/app/transport"
	"github.com/osa030/seekbox/internal/domain/media"
	"github.com/osa030/seekbox/internal/infra/config"
	"github.com/osa030/seekbox/internal/infra/mpv"
	"github.com/osa030/seekbox/internal/infra/simpipe"
)

// NewFactoryFromConfig decodes the backend settings once and returns a
// factory that applies the configured frame rate to every media.
func NewFactoryFromConfig(cfg *config.Config) (pipeline.Factory, error) {
	rate := cfg.FrameRate()
	zlog.Debug().Msgf("creating pipeline backend: type=%s settings=%+v", cfg.Pipeline.Backend, cfg.Pipeline.Settings)

	withRate := func(m media.Media) media.Media {
		if !m.FrameRate.IsValid() {
			m.FrameRate = rate
		}
		return m
	}

	switch cfg.Pipeline.Backend {
	case config.BackendSim, "":
		settings, err := simpipe.DecodeSettings(cfg.Pipeline.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s backend settings", config.BackendSim)
		}
		zlog.Info().Msgf("registered pipeline backend: type=%s duration=%s", config.BackendSim, settings.Duration)
		return func(m media.Media) (pipeline.Pipeline, error) {
			return simpipe.New(withRate(m), settings), nil
		}, nil

	case config.BackendMPV:
		settings, err := mpv.DecodeSettings(cfg.Pipeline.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s backend settings", config.BackendMPV)
		}
		zlog.Info().Msgf("registered pipeline backend: type=%s", config.BackendMPV)
		return func(m media.Media) (pipeline.Pipeline, error) {
			p, err := mpv.New(withRate(m), settings)
			if err != nil {
				return nil, err
			}
			return p, nil
		}, nil

	default:
		return nil, errors.Newf("unsupported pipeline backend: %s", cfg.Pipeline.Backend)
	}
}

// NewSession creates a viewer session using the configured backend and
// viewer settings.
func NewSession(cfg *config.Config) (*session.Manager, error) {
	factory, err := NewFactoryFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return session.NewManager(factory, SessionConfig(cfg))
}

// SessionConfig maps the viewer section onto session configuration.
func SessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		Seek: seek.Config{
			SettleDelay: cfg.SettleDelay(),
			FrameRate:   cfg.FrameRate(),
		},
		Transport: transport.Config{
			ScrollStep: cfg.ScrollStep(),
		},
	}
}
