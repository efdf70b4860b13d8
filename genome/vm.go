package genome

// The growth program is a bounded bytecode list interpreted once per
// eligible growth attempt. Programs gate and parameterize morphogenesis;
// they cannot touch physics or energy directly.

// Opcode identifies a growth-program instruction.
type Opcode uint8

const (
	OpGrow Opcode = iota
	OpGoto
	OpIfEnergyGoto
	OpIfRegGoto
	OpInc
	OpDec
	OpWait
	OpHalt

	// OpcodeCount is the number of opcodes; keep last.
	OpcodeCount
)

var opcodeNames = [OpcodeCount]string{
	"GROW", "GOTO", "IF_ENERGY_GOTO", "IF_REG_GOTO", "INC", "DEC", "WAIT", "HALT",
}

func (o Opcode) String() string {
	if o < OpcodeCount {
		return opcodeNames[o]
	}
	return "unknown"
}

// Program limits.
const (
	MaxInstructions    = 32
	RegisterCount      = 4
	RegisterClamp      = 100000
	BackwardJumpWindow = 128 // Executed instructions considered by the loop guard
	BackwardJumpLimit  = 64  // In-window backward jumps that halt the program
	maxStepsPerAttempt = 256 // Safety ceiling on instructions per attempt
)

// GrowPatch overrides parts of the active growth profile for the event a
// GROW instruction allows. Zero values leave the profile untouched.
type GrowPatch struct {
	NodeBias      NodeType `json:"nodeBias"`
	HasNodeBias   bool     `json:"hasNodeBias,omitempty"`
	AnchorBias    NodeType `json:"anchorBias"`
	HasAnchorBias bool     `json:"hasAnchorBias,omitempty"`
	EdgeKind      EdgeType `json:"edgeKind"`
	HasEdgeKind   bool     `json:"hasEdgeKind,omitempty"`

	BandScale     float64 `json:"bandScale,omitempty"`     // Scales the placement distance; 0 = unset
	ChanceScale   float64 `json:"chanceScale,omitempty"`   // Scales the growth chance; 0 = unset
	CooldownScale float64 `json:"cooldownScale,omitempty"` // Scales the next cooldown; 0 = unset
}

// Instruction is one growth-program step. Field use depends on Op:
// GOTO/IF_* use Line; IF_ENERGY_GOTO uses Ratio; IF_REG_GOTO uses Reg and
// Threshold; INC/DEC use Reg; WAIT uses Ticks; GROW uses Patch.
type Instruction struct {
	Op        Opcode    `json:"op"`
	Line      int       `json:"line,omitempty"`
	Reg       int       `json:"reg,omitempty"`
	Ratio     float64   `json:"ratio,omitempty"`
	Threshold int       `json:"threshold,omitempty"`
	Ticks     int       `json:"ticks,omitempty"`
	Patch     GrowPatch `json:"patch,omitempty"`
}

// VMState is the persistent per-creature interpreter state. It survives
// across ticks and is size-versioned against the current program.
type VMState struct {
	IP     int
	Regs   [RegisterCount]int
	Wait   int
	Halted bool

	// ProgramLen guards against topology mutations swapping the program
	// out from under a stale state.
	ProgramLen int

	ExecCount   int
	opcodesSeen [OpcodeCount]bool

	// Rolling window of backward-jump flags for the loop guard.
	backRing  [BackwardJumpWindow]bool
	backHead  int
	backCount int
}

// Reset clears all interpreter state for a program of the given length.
func (s *VMState) Reset(programLen int) {
	*s = VMState{ProgramLen: programLen}
}

// NoveltyScore returns the behavioral diversity of the program so far:
// the fraction of distinct opcodes executed, ramped in by execution count.
func (s *VMState) NoveltyScore() float64 {
	distinct := 0
	for _, seen := range s.opcodesSeen {
		if seen {
			distinct++
		}
	}
	frac := float64(distinct) / float64(OpcodeCount)
	ramp := float64(s.ExecCount) / 256.0
	if ramp > 1 {
		ramp = 1
	}
	return frac * ramp
}

// pushBackJump records whether the latest executed instruction was a
// backward jump and returns the in-window count.
func (s *VMState) pushBackJump(backward bool) int {
	if s.backRing[s.backHead] {
		s.backCount--
	}
	s.backRing[s.backHead] = backward
	if backward {
		s.backCount++
	}
	s.backHead = (s.backHead + 1) % BackwardJumpWindow
	return s.backCount
}

func (s *VMState) record(op Opcode) {
	s.ExecCount++
	s.opcodesSeen[op] = true
}

// Step runs the program for one growth attempt. It executes instructions
// until a GROW signals an allowed event (returning its patch), a WAIT
// suspends the program, the program halts, or a guard trips. energyRatio
// is the creature's current energy as a fraction of its maximum.
func (s *VMState) Step(program []Instruction, energyRatio float64) (grow bool, patch GrowPatch) {
	if len(program) == 0 {
		// No program means growth is ungated.
		return true, GrowPatch{}
	}
	if s.ProgramLen != len(program) {
		s.Reset(len(program))
	}
	if s.Halted {
		return false, GrowPatch{}
	}
	if s.Wait > 0 {
		s.Wait--
		return false, GrowPatch{}
	}

	for steps := 0; steps < maxStepsPerAttempt; steps++ {
		if s.IP < 0 || s.IP >= len(program) {
			// Running off the end halts; loops need an explicit GOTO.
			s.Halted = true
			return false, GrowPatch{}
		}

		in := &program[s.IP]
		s.record(in.Op)

		jumpTo := -1
		switch in.Op {
		case OpGrow:
			s.IP++
			return true, in.Patch

		case OpGoto:
			jumpTo = in.Line

		case OpIfEnergyGoto:
			if energyRatio >= in.Ratio {
				jumpTo = in.Line
			} else {
				s.IP++
			}

		case OpIfRegGoto:
			reg := in.Reg % RegisterCount
			if s.Regs[reg] >= in.Threshold {
				jumpTo = in.Line
			} else {
				s.IP++
			}

		case OpInc:
			reg := in.Reg % RegisterCount
			if s.Regs[reg] < RegisterClamp {
				s.Regs[reg]++
			}
			s.IP++

		case OpDec:
			reg := in.Reg % RegisterCount
			if s.Regs[reg] > -RegisterClamp {
				s.Regs[reg]--
			}
			s.IP++

		case OpWait:
			s.Wait = in.Ticks
			s.IP++
			return false, GrowPatch{}

		case OpHalt:
			s.Halted = true
			return false, GrowPatch{}

		default:
			// Unknown opcodes are skipped; Sanitize should have removed them.
			s.IP++
		}

		if jumpTo >= 0 {
			backward := jumpTo <= s.IP
			s.IP = jumpTo
			if s.pushBackJump(backward) >= BackwardJumpLimit {
				s.Halted = true
				return false, GrowPatch{}
			}
		} else {
			s.pushBackJump(false)
		}
	}

	// Forward-progress ceiling reached without a signal.
	return false, GrowPatch{}
}
