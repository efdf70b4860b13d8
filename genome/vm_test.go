package genome

import (
	"testing"
)

func TestVMStep_EmptyProgramUngated(t *testing.T) {
	var s VMState
	grow, patch := s.Step(nil, 0.1)
	if !grow {
		t.Fatal("empty program should allow growth")
	}
	if patch != (GrowPatch{}) {
		t.Errorf("empty program patch = %+v, want zero", patch)
	}
}

func TestVMStep_GrowReturnsPatch(t *testing.T) {
	program := []Instruction{
		{Op: OpGrow, Patch: GrowPatch{BandScale: 1.5, HasEdgeKind: true, EdgeKind: EdgeRigid}},
	}
	var s VMState
	grow, patch := s.Step(program, 0.5)
	if !grow {
		t.Fatal("GROW should signal an event")
	}
	if patch.BandScale != 1.5 || !patch.HasEdgeKind || patch.EdgeKind != EdgeRigid {
		t.Errorf("patch = %+v, want the GROW instruction's patch", patch)
	}
}

func TestVMStep_RunsOffEndHalts(t *testing.T) {
	program := []Instruction{
		{Op: OpInc, Reg: 0},
	}
	var s VMState
	grow, _ := s.Step(program, 0.5)
	if grow {
		t.Fatal("no GROW executed, grow should be false")
	}
	if !s.Halted {
		t.Error("running off the program end should halt")
	}
	if s.Regs[0] != 1 {
		t.Errorf("Regs[0] = %d, want 1", s.Regs[0])
	}
	// A halted program never signals again.
	if grow, _ := s.Step(program, 0.5); grow {
		t.Error("halted program signaled growth")
	}
}

func TestVMStep_WaitSuspends(t *testing.T) {
	program := []Instruction{
		{Op: OpWait, Ticks: 2},
		{Op: OpGrow},
	}
	var s VMState
	if grow, _ := s.Step(program, 0.5); grow {
		t.Fatal("WAIT attempt should not grow")
	}
	// Two waiting attempts, then the GROW lands.
	if grow, _ := s.Step(program, 0.5); grow {
		t.Fatal("still waiting, tick 1")
	}
	if grow, _ := s.Step(program, 0.5); grow {
		t.Fatal("still waiting, tick 2")
	}
	if grow, _ := s.Step(program, 0.5); !grow {
		t.Fatal("GROW should fire after the wait elapses")
	}
}

func TestVMStep_EnergyBranch(t *testing.T) {
	// Jump to HALT when energy is high, GROW otherwise.
	program := []Instruction{
		{Op: OpIfEnergyGoto, Ratio: 0.8, Line: 2},
		{Op: OpGrow},
		{Op: OpHalt},
	}

	var low VMState
	if grow, _ := low.Step(program, 0.5); !grow {
		t.Error("below threshold should fall through to GROW")
	}

	var high VMState
	if grow, _ := high.Step(program, 0.9); grow {
		t.Error("at/above threshold should jump past GROW")
	}
	if !high.Halted {
		t.Error("high-energy path should reach HALT")
	}
}

func TestVMStep_RegisterBranch(t *testing.T) {
	// Count to 3 then grow.
	program := []Instruction{
		{Op: OpIfRegGoto, Reg: 1, Threshold: 3, Line: 4},
		{Op: OpInc, Reg: 1},
		{Op: OpWait, Ticks: 0},
		{Op: OpGoto, Line: 0},
		{Op: OpGrow},
	}
	var s VMState
	for i := 0; i < 3; i++ {
		if grow, _ := s.Step(program, 0.5); grow {
			t.Fatalf("attempt %d grew before the counter reached 3", i)
		}
	}
	if grow, _ := s.Step(program, 0.5); !grow {
		t.Fatal("counter reached threshold, GROW expected")
	}
}

func TestVMStep_BackwardJumpGuardHalts(t *testing.T) {
	// Tight infinite loop: GOTO 0 forever.
	program := []Instruction{
		{Op: OpGoto, Line: 0},
	}
	var s VMState
	grow, _ := s.Step(program, 0.5)
	if grow {
		t.Fatal("loop should never grow")
	}
	if !s.Halted {
		t.Error("backward-jump guard should halt a tight loop")
	}
}

func TestVMStep_ProgramLengthChangeResets(t *testing.T) {
	program := []Instruction{
		{Op: OpInc, Reg: 0},
		{Op: OpWait, Ticks: 100},
	}
	var s VMState
	s.Step(program, 0.5)
	if s.Regs[0] != 1 {
		t.Fatalf("Regs[0] = %d, want 1", s.Regs[0])
	}

	longer := append(program, Instruction{Op: OpHalt})
	s.Step(longer, 0.5)
	if s.ProgramLen != len(longer) {
		t.Errorf("ProgramLen = %d, want %d", s.ProgramLen, len(longer))
	}
	// A reset state re-executes from the top: the WAIT is freshly set
	// rather than decremented.
	if s.Wait != 100 {
		t.Errorf("Wait = %d, want 100 after reset and re-execution", s.Wait)
	}
}

func TestRewardStrategy_NoveltyWeight(t *testing.T) {
	if RewardBalanced.NoveltyWeight() != 1 {
		t.Errorf("balanced weight = %v, want 1", RewardBalanced.NoveltyWeight())
	}
	if RewardHarvest.NoveltyWeight() >= 1 {
		t.Error("harvest strategy should discount the novelty credit")
	}
	if RewardExplore.NoveltyWeight() <= 1 {
		t.Error("explore strategy should amplify the novelty credit")
	}
}

func TestNoveltyScore_RampsWithExecution(t *testing.T) {
	var s VMState
	if got := s.NoveltyScore(); got != 0 {
		t.Errorf("fresh state novelty = %v, want 0", got)
	}

	program := []Instruction{
		{Op: OpInc, Reg: 0},
		{Op: OpWait, Ticks: 0},
	}
	s.Step(program, 0.5)
	early := s.NoveltyScore()
	if early <= 0 {
		t.Fatal("novelty should be positive after execution")
	}

	for i := 0; i < 300; i++ {
		s.Step(program, 0.5)
	}
	late := s.NoveltyScore()
	if late <= early {
		t.Errorf("novelty should ramp with execution count: early %v, late %v", early, late)
	}
	if late > 1 {
		t.Errorf("novelty = %v, want <= 1", late)
	}
}
