package warehouse

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/metrics"
	"github.com/inference-sim/warehouse-sim/sim/storage"
	"github.com/inference-sim/warehouse-sim/sim/trace"
)

// PlaceOrder creates an order for the given per-type quantities at the
// current time and starts its assembly process.
func (s *Simulation) PlaceOrder(required map[string]int) *Order {
	s.nextOrderID++
	o := &Order{
		ID:        s.nextOrderID,
		Required:  make(map[string]int, len(required)),
		Status:    OrderCreated,
		CreatedAt: s.sim.Now(),
	}
	for t, n := range required {
		if n > 0 {
			o.Required[t] = n
			o.Total += n
		}
	}
	s.orders = append(s.orders, o)
	s.agg.Count("orders_created")
	s.sim.Spawn(fmt.Sprintf("order-%d", o.ID), func(p *sim.Process) { s.runOrder(p, o) })
	return o
}

// runOrder polls the ledger until the whole order can be reserved, then waits
// for a bay. An order waiting for inventory holds no bay and no forklift.
func (s *Simulation) runOrder(p *sim.Process, o *Order) {
	o.Status = OrderWaitingForInventory
	var poll func()
	poll = func() {
		if !s.ledger.TryReserve(o) {
			if logrus.IsLevelEnabled(logrus.TraceLevel) {
				logrus.Tracef("[t=%9.3f] %s short of %v", p.Now(), o, s.ledger.Missing(o))
			}
			p.Sleep(s.cfg.InventoryPollInterval, poll)
			return
		}
		o.ReservedAt = p.Now()
		s.agg.Record(metrics.OrderAssemblyWait, o.ReservedAt-o.CreatedAt, p.Now())
		o.Status = OrderWaitingForAssemblyBay
		s.bayPool.Acquire(p, sim.PriorityFIFO, func(bt *sim.Ticket) { s.assemble(p, o, bt) })
	}
	poll()
}

// assemble moves every reserved pallet into the first free bay, then builds
// the order there.
func (s *Simulation) assemble(p *sim.Process, o *Order, bayTicket *sim.Ticket) {
	bay := firstFreeBay(s.bays)
	if bay == nil {
		s.sim.Violation("%s granted a bay but every bay is occupied", o)
		return
	}
	bay.Occupied = true
	o.Bay = bay
	o.Status = OrderAssembling

	moves := sim.NewGroup(s.sim)
	picks := o.picks(s.grid.Types())
	next := 0
	for i := 0; i < min(s.cfg.ForkliftsPerOrderAssembly, len(picks)); i++ {
		moves.Go(fmt.Sprintf("pick:order%d-crew%d", o.ID, i+1), func(fp *sim.Process) {
			s.pickNext(fp, picks, &next, bay)
		})
	}
	moves.Wait(p, func() {
		if bay.Fill+o.Total > bay.Capacity {
			s.sim.Violation("%s overfills bay %d: %d + %d > %d", o, bay.ID, bay.Fill, o.Total, bay.Capacity)
			return
		}
		bay.Fill += o.Total
		picked := p.Now()
		s.agg.Record(metrics.PalletPickupTime, picked-o.ReservedAt, picked)
		p.Sleep(float64(o.Total)*s.cfg.AssemblyTimePerPallet, func() {
			now := p.Now()
			s.agg.Record(metrics.OrderAssemblyTime, now-picked, now)
			o.AssembledAt = now
			o.Status = OrderAssembled
			bay.Orders = append(bay.Orders, o)
			s.releaseBay(bay, bayTicket)
			o.Status = OrderWaitingForTruck
			s.agg.Count("orders_assembled")
			logrus.Debugf("[t=%9.3f] %s assembled in bay %d (fill %d/%d)", now, o, bay.ID, bay.Fill, bay.Capacity)
		})
	})
}

// pickNext is one forklift crew of an order. It takes the next unclaimed pick
// until the list is exhausted.
func (s *Simulation) pickNext(p *sim.Process, picks []string, next *int, bay *AssemblyArea) {
	if *next >= len(picks) {
		return
	}
	palletType := picks[*next]
	*next++
	s.pick(p, palletType, bay, func() { s.pickNext(p, picks, next, bay) })
}

// pick retrieves one pallet and carries it to the bay and back, then runs done.
func (s *Simulation) pick(p *sim.Process, palletType string, bay *AssemblyArea, done func()) {
	s.forklifts.Acquire(p, sim.PriorityAssembly, func(fl *sim.Ticket) {
		cell, coord, pallet, err := s.grid.Retrieve(palletType, s.strategy)
		if errors.Is(err, storage.ErrNotFound) {
			logrus.Warnf("[t=%9.3f] %v; retrying pick for bay %d", p.Now(), err, bay.ID)
			s.traceStorage(trace.StorageOpNotFound, palletType, "", storage.Cell{}, false)
			s.forklifts.Release(fl)
			p.Sleep(s.cfg.InventoryPollInterval, func() { s.pick(p, palletType, bay, done) })
			return
		}
		if err != nil {
			s.sim.Violation("pick for bay %d: %v", bay.ID, err)
			return
		}
		if err := s.ledger.Consume(palletType); err != nil {
			s.sim.Violation("%v", err)
			return
		}
		s.traceStorage(trace.StorageOpRetrieve, palletType, pallet.ID, cell, true)
		p.Sleep(2*rackLeg(coord, bay.Location, s.cfg.ForkliftSpeedXY, s.cfg.LeverSpeedZ), func() {
			s.forklifts.Release(fl)
			s.agg.Count("pallets_picked")
			done()
		})
	})
}

// releaseBay frees the bay for the next order while it can still take an
// order of maximum size. Otherwise the bay keeps the ticket until loading
// trucks drain it.
func (s *Simulation) releaseBay(bay *AssemblyArea, ticket *sim.Ticket) {
	if bay.canFit(s.cfg.MaximumOrderSize) {
		bay.Occupied = false
		s.bayPool.Release(ticket)
		return
	}
	bay.blocked = ticket
	logrus.Debugf("[t=%9.3f] bay %d blocked at fill %d/%d", s.sim.Now(), bay.ID, bay.Fill, bay.Capacity)
}

// unblockBay returns a blocked bay's ticket once it has room again.
func (s *Simulation) unblockBay(bay *AssemblyArea) {
	if bay.blocked == nil || !bay.canFit(s.cfg.MaximumOrderSize) {
		return
	}
	ticket := bay.blocked
	bay.blocked = nil
	bay.Occupied = false
	s.bayPool.Release(ticket)
}
