package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/service"
	"github.com/99minutos/live-tracking/internal/infrastructure/backend"
	"github.com/99minutos/live-tracking/internal/infrastructure/realtime"
	"github.com/99minutos/live-tracking/internal/tui"
	"github.com/99minutos/live-tracking/pkg/logger"
)

// runWatch follows a delivery in a full-screen tracking card.
func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	f := registerCommon(fs, domain.RoleCustomer)
	delivery := fs.String("delivery", "", "order id to follow")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *delivery == "" {
		return errors.New("-delivery is required")
	}

	s, err := open(ctx, f, true)
	if err != nil {
		return err
	}

	order, err := s.gateway.GetOrder(ctx, *delivery)
	if err != nil {
		return fmt.Errorf("load order %s: %w", *delivery, err)
	}

	view := service.NewTrackingView(order, s.routeProvider(), service.DefaultMinMove, logger.For(s.log, "view"))
	defer view.Close()

	updates := make(chan service.ViewState, 16)
	conn := make(chan tui.ConnMsg, 4)
	view.Subscribe(func(st service.ViewState) { offer(updates, st) })

	client := s.realtimeClient()
	client.OnConnect(func() {
		client.JoinRoom(order.ID)
		offer(conn, tui.ConnMsg{Connected: true})
	})
	client.OnDisconnect(func(err error) {
		offer(conn, tui.ConnMsg{Err: err})
	})
	client.OnError(func(err error) {
		offer(conn, tui.ConnMsg{Connected: client.State() == realtime.StateConnected, Err: err})
	})
	view.Bind(client)

	// The backend knows where the courier was last seen.
	if api, ok := s.gateway.(*backend.Client); ok {
		if last, err := api.LastLocation(ctx, order.ID); err == nil {
			view.HandleLocation(domain.LocationEvent{DeliveryID: order.ID, Location: last.Location, Timestamp: last.Timestamp})
		}
	}

	if err := client.Connect(ctx, s.user, s.role); err != nil {
		return err
	}
	defer client.Disconnect()

	p := tea.NewProgram(tui.New(order, updates, conn), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// offer sends v without blocking, discarding the oldest queued value when
// ch is full.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
