package cgt

// entry is one step of the calculation walk: either a calculation lot or a
// corporate action, positioned by date and input order.
type entry struct {
	calc   *Calculation
	action *CorporateAction
	date   Date
	seq    int
}

func (e entry) asset() string {
	if e.calc != nil {
		return e.calc.Asset
	}
	return e.action.Security
}

// assetStream is one asset's entries in walk order. Disposals scan their
// own asset's stream for same-day and bed-and-breakfast candidates.
type assetStream struct {
	asset   string
	entries []entry
}

// acquisitionsBetween returns the stream's acquisition calculations dated
// in [from, to], in walk order.
func (s *assetStream) acquisitionsBetween(from, to Date) []*Calculation {
	var out []*Calculation
	for _, e := range s.entries {
		if e.calc == nil || e.calc.IsDisposal() {
			continue
		}
		if e.date.Before(from) || e.date.After(to) {
			continue
		}
		out = append(out, e.calc)
	}
	return out
}

// disposalsOn returns the stream's disposal calculations dated on the day.
func (s *assetStream) disposalsOn(day Date) []*Calculation {
	var out []*Calculation
	for _, e := range s.entries {
		if e.calc != nil && e.calc.IsDisposal() && e.date.Equal(day) {
			out = append(out, e.calc)
		}
	}
	return out
}

// holdings is the engine's working state for one calculation pass: the
// global walk order, per-asset streams, Section 104 pools and open shorts.
type holdings struct {
	order   []entry
	streams map[string]*assetStream
	pools   map[string]*Pool
	// shorts holds disposals whose remainder found no pool quantity,
	// oldest first, waiting for a covering acquisition.
	shorts map[string][]*Calculation
	// derivative marks assets traded as options or futures. They are
	// processed before everything else so exercised premiums land on
	// the underlying trades ahead of the underlying's own matching.
	derivative map[string]bool

	calcs     []*Calculation
	dividends []Dividend
}

// buildHoldings groups the reconciled events into calculation lots (one per
// asset, side, kind and calendar day) and lays out the walk order.
func (s *Session) buildHoldings(events []TaxEvent) *holdings {
	h := &holdings{
		streams:    make(map[string]*assetStream),
		pools:      make(map[string]*Pool),
		shorts:     make(map[string][]*Calculation),
		derivative: make(map[string]bool),
	}
	open := make(map[string]*Calculation)
	for _, ev := range events {
		switch t := ev.(type) {
		case Trade:
			key := t.Security + "|" + string(t.Side) + "|" + string(t.Kind) + "|" + t.Date.String()
			if c, ok := open[key]; ok && c.absorbs(t) {
				c.addFill(t)
				continue
			}
			c := s.newCalculation(t)
			open[key] = c
			h.calcs = append(h.calcs, c)
			h.push(entry{calc: c, date: t.Date, seq: t.Seq()})
			if t.Kind == Option || t.Kind == Future {
				h.derivative[t.Security] = true
			}
		case CorporateAction:
			a := t
			h.push(entry{action: &a, date: a.Date, seq: a.Seq()})
		case Dividend:
			h.dividends = append(h.dividends, t)
		}
	}
	return h
}

func (h *holdings) push(e entry) {
	h.order = append(h.order, e)
	st := h.streams[e.asset()]
	if st == nil {
		st = &assetStream{asset: e.asset()}
		h.streams[e.asset()] = st
	}
	st.entries = append(st.entries, e)
}

// pool returns the asset's Section 104 pool, creating it when first touched.
func (h *holdings) pool(asset string) *Pool {
	p := h.pools[asset]
	if p == nil {
		p = NewPool(asset)
		h.pools[asset] = p
	}
	return p
}

// stream returns the asset's entry stream, which may be nil for assets that
// only appear as a corporate action destination.
func (h *holdings) stream(asset string) *assetStream { return h.streams[asset] }
