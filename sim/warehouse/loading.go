package warehouse

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/metrics"
)

// ArriveLoadingTruck brings an empty truck to the yard at the current time.
func (s *Simulation) ArriveLoadingTruck() *LoadingTruck {
	t := &LoadingTruck{ID: s.newTruckID(), Capacity: s.cfg.TruckCapacityMax, State: TruckArrived}
	s.agg.Count("loading_trucks_arrived")
	s.sim.Spawn(fmt.Sprintf("loading-truck-%d", t.ID), func(p *sim.Process) { s.runLoadingTruck(p, t) })
	return t
}

// runLoadingTruck docks, waits for the paired bay to hold an unshipped order,
// then transfers and loads exactly that order.
func (s *Simulation) runLoadingTruck(p *sim.Process, t *LoadingTruck) {
	t.State = TruckWaitingForDock
	s.loadingPool.Acquire(p, sim.PriorityFIFO, func(dockTicket *sim.Ticket) {
		idx, dock := firstFreeDock(s.loadingDocks)
		if dock == nil {
			s.sim.Violation("loading truck %d granted a dock but every dock is occupied", t.ID)
			return
		}
		dock.occupy(p.Now())
		t.Dock = dock
		bay := s.bays[idx]
		docked := p.Now()
		t.State = TruckWaitingForAssembledOrder

		var wait func()
		wait = func() {
			o := bay.nextUnshipped()
			if o == nil {
				p.Sleep(s.cfg.InventoryPollInterval, wait)
				return
			}
			o.LoadingTruck = t.ID
			t.Order = o
			found := p.Now()
			s.agg.Record(metrics.OrderLoadingWait, found-docked, found)
			s.transfer(p, t, bay, dockTicket, found)
		}
		wait()
	})
}

// transfer moves the claimed order from the bay onto the truck. One forklift
// is held for both the transfer and the loading; the bay drains afterwards.
func (s *Simulation) transfer(p *sim.Process, t *LoadingTruck, bay *AssemblyArea, dockTicket *sim.Ticket, found float64) {
	o := t.Order
	dock := t.Dock
	t.State = TruckTransferring
	s.forklifts.Acquire(p, sim.PriorityLoadTransfer, func(fl *sim.Ticket) {
		travel := floorLeg(bay.Location, dock.Location, s.cfg.ForkliftSpeedXY) * float64(o.Total) * 2
		p.Sleep(travel, func() {
			t.State = TruckLoading
			loaded := t.load(o.Total)
			p.Sleep(float64(loaded)*s.cfg.UnloadTimePerPallet, func() {
				s.forklifts.Release(fl)
				bay.Fill -= o.Total
				bay.removeOrder(o)
				s.unblockBay(bay)

				now := p.Now()
				o.Status = OrderShipped
				o.ShippedAt = now
				t.State = TruckDeparting
				s.agg.Record(metrics.TruckLoadTime, now-found, now)
				s.agg.AddBusy(metrics.PoolLoadingDocks, dock.vacate(now))
				s.loadingPool.Release(dockTicket)
				s.agg.Count("orders_shipped")
				t.State = TruckDeparted
				logrus.Debugf("[t=%9.3f] loading truck %d left dock %d with %s", now, t.ID, dock.ID, o)
			})
		})
	})
}
