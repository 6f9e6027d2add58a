package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/tui"
)

const publishWait = 5 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// runOrders lists the caller's orders; vendors also see available partners.
func runOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	f := registerCommon(fs, domain.RoleVendor)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := open(ctx, f, false)
	if err != nil {
		return err
	}

	var orders []domain.Order
	switch s.role {
	case domain.RoleVendor:
		orders, err = s.gateway.VendorOrders(ctx, s.user)
	case domain.RoleDelivery:
		orders, err = s.gateway.PartnerOrders(ctx, s.user)
	default:
		return errors.New("orders are listed for vendors and delivery partners only")
	}
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ORDER", "CUSTOMER", "STATUS", "COURIER", "TOTAL", "DELIVER TO")
	for _, o := range orders {
		t.Row(o.ID, o.CustomerName, tui.StatusLabel(o.Status), o.DeliveryPartnerName, fmt.Sprintf("$%.2f", o.TotalAmount), o.DeliveryAddress)
	}
	fmt.Fprintln(os.Stdout, t.String())

	if s.role != domain.RoleVendor {
		return nil
	}
	partners, err := s.gateway.AvailablePartners(ctx)
	if err != nil {
		return err
	}
	pt := table.New().Border(lipgloss.RoundedBorder()).Headers("PARTNER", "NAME", "PHONE")
	for _, p := range partners {
		pt.Row(p.ID, p.Name, p.Phone)
	}
	fmt.Fprintln(os.Stdout, pt.String())
	return nil
}

// runAssign assigns an available partner to a pending order.
func runAssign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	f := registerCommon(fs, domain.RoleVendor)
	orderID := fs.String("order", "", "order id")
	partnerID := fs.String("partner", "", "delivery partner id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" || *partnerID == "" {
		return errors.New("-order and -partner are required")
	}

	s, err := open(ctx, f, false)
	if err != nil {
		return err
	}

	order, err := s.gateway.AssignPartner(ctx, *orderID, *partnerID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s assigned to %s\n", order.ID, order.DeliveryPartnerName)
	return s.announceStatus(ctx, order)
}

// runStatus moves an order to a new status.
func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	f := registerCommon(fs, domain.RoleDelivery)
	orderID := fs.String("order", "", "order id")
	status := fs.String("status", "", "picked_up, in_transit, delivered or cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	next := domain.OrderStatus(*status)
	if *orderID == "" || !next.Valid() {
		return errors.New("-order and a valid -status are required")
	}

	s, err := open(ctx, f, false)
	if err != nil {
		return err
	}

	order, err := s.gateway.UpdateStatus(ctx, *orderID, next)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s is now %s\n", order.ID, tui.StatusLabel(order.Status))
	return s.announceStatus(ctx, order)
}

// announceStatus publishes the order's status on the hub. The backend
// broadcasts its own changes, so this only runs on sample data.
func (s *session) announceStatus(ctx context.Context, order *domain.Order) error {
	if s.cfg.Tracker.DataSource == "backend" {
		return nil
	}

	client := s.realtimeClient()
	connected := make(chan struct{})
	failed := make(chan error, 1)
	client.OnConnect(func() { close(connected) })
	client.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})
	if err := client.Connect(ctx, s.user, s.role); err != nil {
		return err
	}
	defer client.Disconnect()

	select {
	case <-connected:
	case err := <-failed:
		s.log.Warn().Err(err).Msg("status not announced on the hub")
		return nil
	case <-time.After(publishWait):
		s.log.Warn().Msg("status not announced on the hub: connect timed out")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	return client.PublishStatus(order.ID, order.Status)
}
