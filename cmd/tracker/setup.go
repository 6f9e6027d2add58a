package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
	"github.com/99minutos/live-tracking/internal/infrastructure/backend"
	"github.com/99minutos/live-tracking/internal/infrastructure/config"
	"github.com/99minutos/live-tracking/internal/infrastructure/geolocation"
	"github.com/99minutos/live-tracking/internal/infrastructure/mockdata"
	"github.com/99minutos/live-tracking/internal/infrastructure/realtime"
	"github.com/99minutos/live-tracking/internal/infrastructure/routing"
	"github.com/99minutos/live-tracking/pkg/logger"
)

// session bundles what every subcommand needs once flags are parsed.
type session struct {
	cfg     *config.Config
	log     zerolog.Logger
	user    string
	role    domain.Role
	token   string
	gateway ports.OrderGateway
}

// commonFlags registers the identity flags shared by all subcommands.
type commonFlags struct {
	user     *string
	role     *string
	email    *string
	password *string
	logFile  *string
}

func registerCommon(fs *flag.FlagSet, defaultRole domain.Role) commonFlags {
	return commonFlags{
		user:     fs.String("user", "", "user id announced to the hub"),
		role:     fs.String("role", string(defaultRole), "vendor, delivery or customer"),
		email:    fs.String("email", "", "login email (backend data source)"),
		password: fs.String("password", "", "login password (backend data source)"),
		logFile:  fs.String("log", "", "write logs to this file instead of stderr"),
	}
}

// open loads configuration, initialises logging and picks the order gateway.
// With the backend data source and no API_TOKEN, -email/-password log in first.
func open(ctx context.Context, f commonFlags, quiet bool) (*session, error) {
	cfg, err := config.LoadWith(ctx, nil)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	switch {
	case *f.logFile != "":
		file, err := os.OpenFile(*f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
	case quiet:
		out = io.Discard
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: out, Service: "tracker"})

	role := domain.Role(*f.role)
	if *f.user == "" || !role.Valid() {
		return nil, errors.New("-user and a valid -role are required")
	}

	s := &session{cfg: cfg, log: log, user: *f.user, role: role, token: cfg.Tracker.Token}

	switch cfg.Tracker.DataSource {
	case "backend":
		client := backend.NewClient(cfg.Tracker.APIBaseURL, cfg.Tracker.Token, nil, log)
		if s.token == "" && *f.email != "" {
			user, err := client.Login(ctx, *f.email, *f.password, role)
			if err != nil {
				return nil, fmt.Errorf("login: %w", err)
			}
			s.user = user.ID
			s.token = client.Token()
		}
		s.gateway = client
	default:
		s.gateway = mockdata.NewStore()
	}
	return s, nil
}

func (s *session) realtimeClient() *realtime.Client {
	return realtime.NewClient(realtime.ClientConfig{
		URL:          s.cfg.Tracker.HubURL,
		Token:        s.token,
		WriteTimeout: s.cfg.Hub.WriteTimeout,
	}, logger.For(s.log, "realtime"))
}

func (s *session) positionSource() (ports.PositionSource, error) {
	t := s.cfg.Tracker
	switch t.PositionSource {
	case "replay":
		track, err := geolocation.LoadTrack(t.ReplayFile)
		if err != nil {
			return nil, err
		}
		return geolocation.NewReplay(track), nil
	default:
		return geolocation.NewSimulated(domain.Coordinates{Lat: t.SimStartLat, Lng: t.SimStartLng}, t.SimInterval), nil
	}
}

func (s *session) routeProvider() ports.RouteProvider {
	r := s.cfg.Routing
	if r.MapboxToken == "" {
		return routing.NewEstimate(r.AvgSpeedKmh)
	}
	return routing.NewMapbox(r.MapboxBaseURL, r.MapboxToken, nil)
}
