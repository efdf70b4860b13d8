package telemetry

import (
	"math"
	"testing"
)

func TestCollector_WindowDeltas(t *testing.T) {
	c := NewCounters()
	col := NewCollector(c)

	c.Births = 3
	c.RecordDeath("energy_depleted")
	c.RecordDeath("span_exceeded")
	c.GrowthEvents = 5

	ws := col.Flush(600, 10, 200, 2)
	if ws.Births != 3 || ws.Deaths != 2 {
		t.Errorf("births/deaths = %d/%d, want 3/2", ws.Births, ws.Deaths)
	}
	if ws.DeathsEnergy != 1 || ws.DeathsPhys != 1 {
		t.Errorf("deaths energy/phys = %d/%d, want 1/1", ws.DeathsEnergy, ws.DeathsPhys)
	}
	if ws.GrowthEvents != 5 {
		t.Errorf("growth events = %d, want 5", ws.GrowthEvents)
	}
	if ws.WindowStartTick != 0 || ws.WindowEndTick != 600 {
		t.Errorf("window = %d..%d, want 0..600", ws.WindowStartTick, ws.WindowEndTick)
	}

	// Second window reports only the increments.
	c.Births = 4
	c.RecordDeath("energy_depleted")
	ws = col.Flush(1200, 9, 190, 2)
	if ws.Births != 1 || ws.Deaths != 1 || ws.DeathsEnergy != 1 {
		t.Errorf("second window births/deaths/energy = %d/%d/%d, want 1/1/1",
			ws.Births, ws.Deaths, ws.DeathsEnergy)
	}
	if ws.DeathsPhys != 0 {
		t.Errorf("second window physics deaths = %d, want 0", ws.DeathsPhys)
	}
	if ws.WindowStartTick != 600 {
		t.Errorf("second window start = %d, want 600", ws.WindowStartTick)
	}
}

func TestCollector_SampleDistribution(t *testing.T) {
	col := NewCollector(NewCounters())
	for i := 1; i <= 10; i++ {
		col.SampleCreature(float64(i)/10, i, 0.5)
	}

	ws := col.Flush(600, 10, 0, 1)
	if math.Abs(ws.EnergyMean-0.55) > 1e-9 {
		t.Errorf("energy mean = %v, want 0.55", ws.EnergyMean)
	}
	if ws.EnergyP10 > ws.EnergyP50 || ws.EnergyP50 > ws.EnergyP90 {
		t.Errorf("quantiles not ordered: %v %v %v", ws.EnergyP10, ws.EnergyP50, ws.EnergyP90)
	}
	if math.Abs(ws.PointsMean-5.5) > 1e-9 {
		t.Errorf("points mean = %v, want 5.5", ws.PointsMean)
	}
	if ws.RigidFracMean != 0.5 {
		t.Errorf("rigid fraction mean = %v, want 0.5", ws.RigidFracMean)
	}
}

func TestCollector_SamplesResetBetweenWindows(t *testing.T) {
	col := NewCollector(NewCounters())
	col.SampleCreature(1, 4, 0)
	col.Flush(600, 1, 0, 0)

	ws := col.Flush(1200, 0, 0, 0)
	if ws.EnergyMean != 0 || ws.PointsMean != 0 {
		t.Errorf("empty window stats = %+v, want zeroed distribution", ws)
	}
}

func TestRecordDeath_CountsByReason(t *testing.T) {
	c := NewCounters()
	c.RecordDeath("out_of_bounds")
	c.RecordDeath("out_of_bounds")
	c.RecordDeath("energy_depleted")

	if c.Deaths != 3 {
		t.Errorf("deaths = %d, want 3", c.Deaths)
	}
	if c.DeathsByReason["out_of_bounds"] != 2 {
		t.Errorf("out_of_bounds = %d, want 2", c.DeathsByReason["out_of_bounds"])
	}
}
