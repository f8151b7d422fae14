package model

import "testing"

func TestReservationConsumed(t *testing.T) {
	tests := []struct {
		status   string
		consumed bool
	}{
		{ReservationPending, false},
		{ReservationAccepted, true},
		{ReservationRejected, true},
		{ReservationExpired, true},
	}

	for _, tt := range tests {
		r := &Reservation{Status: tt.status}
		if got := r.Consumed(); got != tt.consumed {
			t.Errorf("Consumed() with status %q = %v, want %v", tt.status, got, tt.consumed)
		}
	}
}

func TestReservationQuantityFor(t *testing.T) {
	r := &Reservation{Quantities: map[int64]int{7: 3}}

	if got := r.QuantityFor(7); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := r.QuantityFor(8); got != 1 {
		t.Errorf("expected default 1, got %d", got)
	}

	// No quantities map at all.
	r = &Reservation{}
	if got := r.QuantityFor(7); got != 1 {
		t.Errorf("expected default 1, got %d", got)
	}
}
