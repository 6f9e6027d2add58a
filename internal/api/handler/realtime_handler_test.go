package handler

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

type stubPeerServer struct {
	served []domain.Identity
}

func (s *stubPeerServer) Serve(w http.ResponseWriter, r *http.Request, id domain.Identity) error {
	s.served = append(s.served, id)
	return nil
}

func TestRealtimeHandler_Connect(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantCode  int
		wantServe bool
	}{
		{"matching identity", "?user_id=DEL001&role=delivery", 0, true},
		{"missing role", "?user_id=DEL001", http.StatusBadRequest, false},
		{"other user", "?user_id=DEL002&role=delivery", http.StatusForbidden, false},
		{"other role", "?user_id=DEL001&role=vendor", http.StatusForbidden, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hub := &stubPeerServer{}
			h := NewRealtimeHandler(hub, zerolog.Nop())

			c, _ := newTestContext(http.MethodGet, "/ws"+tc.query, "")
			c.Set("user_id", "DEL001")
			c.Set("role", "delivery")

			err := h.Connect(c)
			if tc.wantCode == 0 && err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if tc.wantCode != 0 && httpCode(err) != tc.wantCode {
				t.Fatalf("expected %d, got %v", tc.wantCode, err)
			}
			if served := len(hub.served) == 1; served != tc.wantServe {
				t.Fatalf("serve called: %v, want %v", served, tc.wantServe)
			}
			if tc.wantServe && hub.served[0] != (domain.Identity{UserID: "DEL001", Role: domain.RoleDelivery}) {
				t.Fatalf("unexpected identity: %+v", hub.served[0])
			}
		})
	}
}
