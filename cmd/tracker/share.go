package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/service"
	"github.com/99minutos/live-tracking/pkg/logger"
)

const sessionPoll = time.Second

// runShare publishes this device's position for a delivery until interrupted,
// the positioning source fails, or the delivery reaches a terminal status.
func runShare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	f := registerCommon(fs, domain.RoleDelivery)
	delivery := fs.String("delivery", "", "order id to publish for; empty tracks without publishing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := open(ctx, f, false)
	if err != nil {
		return err
	}
	log := s.log

	if *delivery != "" {
		order, err := s.gateway.GetOrder(ctx, *delivery)
		if err != nil {
			return fmt.Errorf("load order %s: %w", *delivery, err)
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("order %s is already %s", order.ID, order.Status)
		}
		if order.DeliveryPartnerID != "" && order.DeliveryPartnerID != s.user {
			log.Warn().Str("delivery_id", order.ID).Str("partner_id", order.DeliveryPartnerID).Msg("order is assigned to another partner")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := s.realtimeClient()
	client.OnConnect(func() {
		if *delivery != "" {
			client.JoinRoom(*delivery)
		}
	})
	client.OnDisconnect(func(err error) {
		if err != nil {
			log.Warn().Err(err).Msg("realtime connection lost, positions are no longer published")
		}
	})
	client.OnError(func(err error) {
		log.Error().Err(err).Msg("realtime error")
	})
	client.OnStatusReceived(func(ev domain.StatusEvent) {
		log.Info().Str("delivery_id", ev.DeliveryID).Str("status", string(ev.Status)).Msg("status update")
		if ev.DeliveryID == *delivery && ev.Status.IsTerminal() {
			cancel()
		}
	})
	if err := client.Connect(ctx, s.user, s.role); err != nil {
		return err
	}
	defer client.Disconnect()

	source, err := s.positionSource()
	if err != nil {
		return err
	}
	tracker := service.NewTracker(source, client, logger.For(log, "tracker"))

	if fix, err := tracker.CurrentLocation(ctx); err == nil {
		log.Info().Float64("lat", fix.Latitude).Float64("lng", fix.Longitude).Msg("initial position")
	} else {
		log.Warn().Err(err).Msg("no initial position")
	}

	if err := tracker.Start(*delivery); err != nil {
		return err
	}
	defer tracker.Stop()
	log.Info().Str("delivery_id", *delivery).Msg("sharing location, press ctrl+c to stop")

	ticker := time.NewTicker(sessionPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if sess := tracker.Session(); !sess.Active {
				return sess.LastError
			}
		}
	}
}
