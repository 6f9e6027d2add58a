// Package tui renders a live tracking card in the terminal.
//
// The model is fed from two channels: view states produced by a
// service.TrackingView and connection changes of the realtime client.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/service"
)

// StateMsg carries a new tracking view state.
type StateMsg service.ViewState

// ConnMsg reports a change of the realtime connection.
type ConnMsg struct {
	Connected bool
	Err       error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	statusColors = map[domain.OrderStatus]lipgloss.Color{
		domain.StatusAssigned:  lipgloss.Color("33"),
		domain.StatusPickedUp:  lipgloss.Color("178"),
		domain.StatusInTransit: lipgloss.Color("135"),
		domain.StatusDelivered: lipgloss.Color("34"),
		domain.StatusCancelled: lipgloss.Color("160"),
	}

	titleCaser = cases.Title(language.English)
)

// Model is the bubbletea model of the tracking card.
type Model struct {
	order     *domain.Order
	state     service.ViewState
	connected bool
	connErr   error
	updates   <-chan service.ViewState
	conn      <-chan ConnMsg
	quitting  bool
}

// New returns a model for order. Either channel may be nil.
func New(order *domain.Order, updates <-chan service.ViewState, conn <-chan ConnMsg) Model {
	return Model{
		order:   order,
		updates: updates,
		conn:    conn,
		state: service.ViewState{
			DeliveryID: order.ID,
			Pickup:     order.PickupLocation,
			Dropoff:    order.DeliveryLocation,
			Status:     order.Status,
		},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitState(m.updates), waitConn(m.conn))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case StateMsg:
		s := service.ViewState(msg)
		// Snapshots can arrive out of order when several are queued.
		if s.Version >= m.state.Version {
			m.state = s
		}
		return m, waitState(m.updates)
	case ConnMsg:
		m.connected = msg.Connected
		m.connErr = msg.Err
		return m, waitConn(m.conn)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Order #"+m.order.ID) + "  " + StatusBadge(m.state.Status) + "\n")
	b.WriteString(StatusMessage(m.state.Status) + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Deliver to", m.order.DeliveryAddress)
	if m.order.DeliveryPartnerName != "" {
		row("Courier", m.order.DeliveryPartnerName)
	}
	if m.state.Current != nil {
		row("Position", fmt.Sprintf("%.4f, %.4f", m.state.Current.Lat, m.state.Current.Lng))
		row("Updated", m.state.LocationAt.Local().Format("15:04:05"))
	} else {
		row("Position", "waiting for courier")
	}
	if m.state.RouteErr == nil && len(m.state.Route) > 0 {
		row("Distance", fmt.Sprintf("%.2f km", m.state.DistanceKm))
		row("Duration", fmt.Sprintf("%d min", m.state.DurationMinutes))
	}

	var notices []string
	if m.state.RouteErr != nil {
		notices = append(notices, "Route unavailable")
	}
	switch {
	case m.connErr != nil:
		notices = append(notices, "Realtime: "+m.connErr.Error())
	case !m.connected:
		notices = append(notices, "Realtime: disconnected")
	}
	if len(notices) > 0 {
		b.WriteString("\n" + noticeStyle.Render(strings.Join(notices, "\n")) + "\n")
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n" + helpStyle.Render("q to quit") + "\n"
}

// StatusLabel renders a status for humans, "in_transit" becomes "In Transit".
func StatusLabel(s domain.OrderStatus) string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// StatusBadge is StatusLabel in the status colour.
func StatusBadge(s domain.OrderStatus) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := statusColors[s]; ok {
		style = style.Foreground(c)
	}
	return style.Render(StatusLabel(s))
}

// StatusMessage is the one-line explanation shown under the title.
func StatusMessage(s domain.OrderStatus) string {
	switch s {
	case domain.StatusAssigned:
		return "Delivery partner assigned"
	case domain.StatusPickedUp:
		return "Order picked up from restaurant"
	case domain.StatusInTransit:
		return "On the way to you"
	case domain.StatusDelivered:
		return "Order delivered"
	case domain.StatusCancelled:
		return "Order cancelled"
	}
	return "Processing order"
}

func waitState(ch <-chan service.ViewState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return StateMsg(s)
	}
}

func waitConn(ch <-chan ConnMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return c
	}
}
