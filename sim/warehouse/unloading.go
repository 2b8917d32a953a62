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

// ArriveUnloadingTruck brings a truck carrying one pallet per entry of types
// to the yard at the current time.
func (s *Simulation) ArriveUnloadingTruck(types []string) *UnloadingTruck {
	t := &UnloadingTruck{ID: s.newTruckID(), Capacity: len(types), State: TruckArrived}
	for i, pt := range types {
		t.Manifest = append(t.Manifest, &storage.Pallet{
			ID:        palletID(t.ID, i+1),
			Type:      pt,
			Location:  storage.OnTruck,
			CreatedAt: s.sim.Now(),
		})
	}
	s.agg.Count("unloading_trucks_arrived")
	logrus.Debugf("[t=%9.3f] unloading truck %d arrived with %d pallets", s.sim.Now(), t.ID, t.Capacity)
	s.sim.Spawn(fmt.Sprintf("unloading-truck-%d", t.ID), func(p *sim.Process) { s.runUnloadingTruck(p, t) })
	return t
}

// runUnloadingTruck holds a dock from arrival until every pallet on the truck
// has been unloaded and put away.
func (s *Simulation) runUnloadingTruck(p *sim.Process, t *UnloadingTruck) {
	t.State = TruckWaitingForDock
	s.unloadingPool.Acquire(p, sim.PriorityFIFO, func(dockTicket *sim.Ticket) {
		_, dock := firstFreeDock(s.unloadingDocks)
		if dock == nil {
			s.sim.Violation("unloading truck %d granted a dock but every dock is occupied", t.ID)
			return
		}
		dock.occupy(p.Now())
		t.Dock = dock
		t.State = TruckUnloading
		start := p.Now()

		work := sim.NewGroup(s.sim)
		crews := min(s.cfg.ForkliftsPerUnloadDock, len(t.Manifest))
		claimed := 0
		for i := 0; i < crews; i++ {
			work.Go(fmt.Sprintf("unload:truck%d-crew%d", t.ID, i+1), func(fp *sim.Process) {
				s.unloadPallets(fp, t, dock, work, &claimed)
			})
		}
		work.Wait(p, func() {
			t.State = TruckDeparting
			now := p.Now()
			unload := float64(t.Capacity) * s.cfg.UnloadTimePerPallet
			s.agg.Record(metrics.TruckUnloadTime, unload, now)
			s.agg.Record(metrics.PalletPutTime, now-start-unload, now)
			s.agg.AddBusy(metrics.PoolUnloadingDocks, dock.vacate(now))
			s.unloadingPool.Release(dockTicket)
			s.agg.Count("unloading_trucks_departed")
			t.State = TruckDeparted
			logrus.Debugf("[t=%9.3f] unloading truck %d departed dock %d", now, t.ID, dock.ID)
		})
	})
}

// unloadPallets is one forklift crew at a dock. It keeps taking pallets off
// the truck until every pallet has been claimed by some crew, handing each one
// to a put-away process in the same group.
func (s *Simulation) unloadPallets(p *sim.Process, t *UnloadingTruck, dock *Dock, work *sim.Group, claimed *int) {
	if *claimed >= t.Capacity {
		return
	}
	*claimed++
	s.forklifts.Acquire(p, sim.PriorityUnload, func(fl *sim.Ticket) {
		p.Sleep(s.cfg.UnloadTimePerPallet, func() {
			pallet, ok := t.unload()
			if !ok {
				s.sim.Violation("unloading truck %d: forklift found an empty manifest", t.ID)
				return
			}
			pallet.Location = storage.AtDock
			pallet.UnloadedAt = p.Now()
			dock.Staging.Enqueue(pallet)
			s.forklifts.Release(fl)
			work.Go("put-away:"+pallet.ID, func(fp *sim.Process) { s.putAway(fp, dock) })
			s.unloadPallets(p, t, dock, work, claimed)
		})
	})
}

// putAway stores the pallet at the head of the dock's staging queue. A full
// zone puts the pallet back at the head and retries after a poll interval.
func (s *Simulation) putAway(p *sim.Process, dock *Dock) {
	s.forklifts.Acquire(p, sim.PriorityPutAway, func(fl *sim.Ticket) {
		pallet, ok := dock.Staging.Dequeue()
		if !ok {
			s.sim.Violation("put-away at dock %d found an empty staging queue", dock.ID)
			return
		}
		cell, coord, err := s.grid.Assign(pallet)
		if errors.Is(err, storage.ErrStorageFull) {
			logrus.Warnf("[t=%9.3f] %v; %s waits at dock %d", p.Now(), err, pallet, dock.ID)
			s.traceStorage(trace.StorageOpFull, pallet.Type, pallet.ID, storage.Cell{}, false)
			s.agg.Count("storage_full_retries")
			dock.Staging.PrependFront(pallet)
			s.forklifts.Release(fl)
			p.Sleep(s.cfg.InventoryPollInterval, func() { s.putAway(p, dock) })
			return
		}
		if err != nil {
			s.sim.Violation("put-away of %s: %v", pallet, err)
			return
		}
		s.traceStorage(trace.StorageOpStore, pallet.Type, pallet.ID, cell, true)

		leg := rackLeg(coord, dock.Location, s.cfg.ForkliftSpeedXY, s.cfg.LeverSpeedZ)
		p.Sleep(leg, func() {
			if err := s.grid.Commit(cell, p.Now()); err != nil {
				s.sim.Violation("put-away of %s: %v", pallet, err)
				return
			}
			p.Sleep(leg, func() {
				s.forklifts.Release(fl)
				s.agg.Count("pallets_stored")
			})
		})
	})
}
