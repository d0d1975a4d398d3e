package quoting

import "testing"

func TestGenerateQuotesBidBelowAsk(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	q := m.GenerateQuotes(100, 100, 0, 0.02, 0, 0, 0, 0.01)

	if q.Bid >= q.Ask {
		t.Errorf("bid %v should be < ask %v", q.Bid, q.Ask)
	}
}

func TestGenerateQuotesDeterministic(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	q1 := m.GenerateQuotes(100, 100, 0.5, 0.02, 0.1, 0.05, 0.2, 0.01)
	q2 := m.GenerateQuotes(100, 100, 0.5, 0.02, 0.1, 0.05, 0.2, 0.01)

	if q1 != q2 {
		t.Errorf("same inputs should produce identical quotes: %+v vs %+v", q1, q2)
	}
}

func TestGenerateQuotesPositiveInventorySkewsDown(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	flat := m.GenerateQuotes(100, 100, 0, 0.02, 0, 0, 0, 0.01)
	long := m.GenerateQuotes(100, 100, 5, 0.02, 0, 0, 0, 0.01)

	if long.ReservationPrice >= flat.ReservationPrice {
		t.Errorf("long inventory should push reservation price down: long=%v flat=%v",
			long.ReservationPrice, flat.ReservationPrice)
	}
}

func TestGenerateQuotesLongInventorySkewsBidAndAskDown(t *testing.T) {
	t.Parallel()
	m := NewModel(0.01, 120, 1.5, 1.0, 0.5)
	short := m.GenerateQuotes(30000, 30000, -5, 1e-4, 0, 0, 0, 1.0)
	long := m.GenerateQuotes(30000, 30000, 5, 1e-4, 0, 0, 0, 1.0)

	if long.Bid >= short.Bid {
		t.Errorf("long inventory should skew bid down: long=%v short=%v", long.Bid, short.Bid)
	}
	if long.Ask >= short.Ask {
		t.Errorf("long inventory should skew ask down: long=%v short=%v", long.Ask, short.Ask)
	}
}

func TestGenerateQuotesRespectsMinSpreadFloor(t *testing.T) {
	t.Parallel()
	m := NewModel(1e-6, 1.0, 1e6, 0.5, 0.0)
	q := m.GenerateQuotes(100, 100, 0, 0, 0, 0, 0, 0.01)

	if q.HalfSpread < 0.25 {
		t.Errorf("half spread = %v, want >= min_spread/2 = 0.25", q.HalfSpread)
	}
}

func TestGenerateQuotesHighVolatilityWidensSpread(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	low := m.GenerateQuotes(100, 100, 0, 0.01, 0, 0, 0, 0.01)
	high := m.GenerateQuotes(100, 100, 0, 0.2, 0, 0, 0, 0.01)

	lowSpread := low.Ask - low.Bid
	highSpread := high.Ask - high.Bid
	if highSpread <= lowSpread {
		t.Errorf("higher volatility should widen spread: low=%v high=%v", lowSpread, highSpread)
	}
}

func TestSnapTickNeverCrossesRequestedSpread(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	q := m.GenerateQuotes(100.03, 100.03, 0, 0.02, 0, 0, 0, 0.05)

	// Tick is 0.05; bid/ask should be exact multiples of it.
	bidUnits := q.Bid / 0.05
	askUnits := q.Ask / 0.05
	if bidUnits != float64(int64(bidUnits)) {
		t.Errorf("bid %v not snapped to tick 0.05", q.Bid)
	}
	if askUnits != float64(int64(askUnits)) {
		t.Errorf("ask %v not snapped to tick 0.05", q.Ask)
	}
}

func TestKappaDefaultsWhenZero(t *testing.T) {
	t.Parallel()
	m := NewModel(0.1, 1.0, 0, 0.01, 0.5)
	if m.Kappa <= 0 {
		t.Errorf("kappa should default to a small positive value, got %v", m.Kappa)
	}
}
