// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Nodes        NodesConfig        `yaml:"nodes"`
	Genes        GenesConfig        `yaml:"genes"`
	Energy       EnergyConfig       `yaml:"energy"`
	Growth       GrowthConfig       `yaml:"growth"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Fluid        FluidConfig        `yaml:"fluid"`
	Resource     ResourceConfig     `yaml:"resource"`
	Particles    ParticlesConfig    `yaml:"particles"`
	Brain        BrainConfig        `yaml:"brain"`
	Population   PopulationConfig   `yaml:"population"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions and boundary behavior.
type WorldConfig struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	Wrap              bool    `yaml:"wrap"`                  // Toroidal wrap; false = reflecting walls
	KillOnOutOfBounds bool    `yaml:"kill_on_out_of_bounds"` // Only meaningful when wrap is false
	Restitution       float64 `yaml:"restitution"`           // Wall bounce factor
}

// PhysicsConfig holds the soft-body integrator parameters.
type PhysicsConfig struct {
	GridCellSize float64 `yaml:"grid_cell_size"`

	MaxAccel                float64 `yaml:"max_accel"`                  // Per-node acceleration ceiling
	MaxVelocity             float64 `yaml:"max_velocity"`               // Implicit per-step velocity ceiling
	MaxDisplacementPerFrame float64 `yaml:"max_displacement_per_frame"` // Fatal if exceeded
	MaxSpanPerPoint         float64 `yaml:"max_span_per_point"`         // Bounding span / point count ceiling

	RigidIterations int     `yaml:"rigid_iterations"`
	RigidTolerance  float64 `yaml:"rigid_tolerance"` // Relative length error triggering correction
	RigidStiffness  float64 `yaml:"rigid_stiffness"` // Global override for rigid springs
	RigidDamping    float64 `yaml:"rigid_damping"`

	EdgeStretchCap       float64 `yaml:"edge_stretch_cap"`    // Hard length cap factor for all springs
	OverstretchKillAt    float64 `yaml:"overstretch_kill_at"` // Stretch factor that latches unstable (0 disables)
	ForceAllSpringsRigid bool    `yaml:"force_all_springs_rigid"`

	RepulsionRadiusFactor float64 `yaml:"repulsion_radius_factor"` // Intra-body repulsion reach, in radii
	RepulsionStrength     float64 `yaml:"repulsion_strength"`

	DragSoft            float64 `yaml:"drag_soft"`  // Fluid drag for fully soft points
	DragRigid           float64 `yaml:"drag_rigid"` // Fluid drag for fully rigid points
	FeedbackSoft        float64 `yaml:"feedback_soft"`
	FeedbackRigid       float64 `yaml:"feedback_rigid"`
	FloatingEntrainment float64 `yaml:"floating_entrainment"` // Direct prev-position perturbation for Floating points

	SwimmerForce     float64 `yaml:"swimmer_force"`
	JetSpeedCeiling  float64 `yaml:"jet_speed_ceiling"` // Base ceiling, scaled by the jet gene
	JetInjection     float64 `yaml:"jet_injection"`
	EmitterDyeAmount float64 `yaml:"emitter_dye_amount"`
}

// NodesConfig holds per-node bounds and lifecycle parameters.
type NodesConfig struct {
	RadiusMin float64 `yaml:"radius_min"`
	RadiusMax float64 `yaml:"radius_max"`
	MassMin   float64 `yaml:"mass_min"`
	MassMax   float64 `yaml:"mass_max"`

	MaxAgeTicks     int     `yaml:"max_age_ticks"`
	SenescenceStart float64 `yaml:"senescence_start"` // Lifetime ratio where actuation decay begins
	SenescenceFloor float64 `yaml:"senescence_floor"` // Minimum actuation scale in old age

	ActivationIntervalMin int `yaml:"activation_interval_min"`
	ActivationIntervalMax int `yaml:"activation_interval_max"`

	PredatorRadiusMin   float64 `yaml:"predator_radius_min"`
	PredatorRadiusMax   float64 `yaml:"predator_radius_max"`
	PredatorSapAmount   float64 `yaml:"predator_sap_amount"`   // Energy sapped per node per tick
	PredatorSelfPenalty float64 `yaml:"predator_self_penalty"` // Damage per same-body overlap in radius
	EaterRadiusFactor   float64 `yaml:"eater_radius_factor"`   // Consumption reach, in node radii
	EaterTouchPenalty   float64 `yaml:"eater_touch_penalty"`   // Contact penalty while exerting

	NeuronHiddenMax int `yaml:"neuron_hidden_max"`
}

// GenesConfig holds bounds for creature-level heritable scalars.
type GenesConfig struct {
	StiffnessMin float64 `yaml:"stiffness_min"`
	StiffnessMax float64 `yaml:"stiffness_max"`
	DampingMin   float64 `yaml:"damping_min"`
	DampingMax   float64 `yaml:"damping_max"`

	MotorImpulseMax float64 `yaml:"motor_impulse_max"`
	EmitterRateMax  float64 `yaml:"emitter_rate_max"`
	JetGeneMax      float64 `yaml:"jet_gene_max"`

	OffspringMax       int     `yaml:"offspring_max"`
	OffspringRadiusMax float64 `yaml:"offspring_radius_max"`

	ReproThresholdMin float64 `yaml:"repro_threshold_min"` // Fraction of max energy
	ReproThresholdMax float64 `yaml:"repro_threshold_max"`
	ReproCooldownMin  int     `yaml:"repro_cooldown_min"`
	ReproCooldownMax  int     `yaml:"repro_cooldown_max"`

	PatternPeriodMin int     `yaml:"pattern_period_min"`
	PatternPeriodMax int     `yaml:"pattern_period_max"`
	DyeGainMax       float64 `yaml:"dye_gain_max"`
}

// EnergyConfig holds the per-tick energy economy parameters.
type EnergyConfig struct {
	MaxPerPoint  float64 `yaml:"max_per_point"` // currentMaxEnergy = points * this
	InitialRatio float64 `yaml:"initial_ratio"` // Starting energy as a fraction of max

	BaseCost              float64 `yaml:"base_cost"`               // Existence cost per node per tick
	ScarcityNutrientFloor float64 `yaml:"scarcity_nutrient_floor"` // Lower clamp for 1/nutrient scaling
	UpkeepFraction        float64 `yaml:"upkeep_fraction"`         // Actuation cost fraction charged every tick

	PredatorCost  float64 `yaml:"predator_cost"`
	EaterCost     float64 `yaml:"eater_cost"`
	SwimmerCost   float64 `yaml:"swimmer_cost"`
	EmitterCost   float64 `yaml:"emitter_cost"`
	JetCost       float64 `yaml:"jet_cost"`
	AttractorCost float64 `yaml:"attractor_cost"`
	RepulsorCost  float64 `yaml:"repulsor_cost"`
	NeuronCost    float64 `yaml:"neuron_cost"`
	EyeCost       float64 `yaml:"eye_cost"`

	PhotosynthesisEfficiency float64 `yaml:"photosynthesis_efficiency"`
	PoisonRedRate            float64 `yaml:"poison_red_rate"`
	OverexposureThreshold    float64 `yaml:"overexposure_threshold"`
	OverexposureRate         float64 `yaml:"overexposure_rate"`

	NoveltyBonusRate float64 `yaml:"novelty_bonus_rate"` // Growth-program diversity reward
}

// GrowthConfig holds morphogenesis parameters.
type GrowthConfig struct {
	MaxPoints      int     `yaml:"max_points"`      // Hard cap on live points per creature
	MinClearance   float64 `yaml:"min_clearance"`   // Minimum distance to existing points
	DistanceBand   float64 `yaml:"distance_band"`   // Base placement distance unit
	PopulationGate int     `yaml:"population_gate"` // No growth while population >= this
	ChanceMax      float64 `yaml:"chance_max"`      // Upper clamp for growth chance genes
	CooldownMin    int     `yaml:"cooldown_min"`
	CooldownMax    int     `yaml:"cooldown_max"`
	StiffScaleMin  float64 `yaml:"stiff_scale_min"` // Edge stiffness/damping scale gene bounds
	StiffScaleMax  float64 `yaml:"stiff_scale_max"`
	BranchDepthMax int     `yaml:"branch_depth_max"` // Upper clamp for the growth-plan depth cap
}

// ViabilityConfig holds the child-blueprint acceptance gates.
type ViabilityConfig struct {
	MinPoints           int     `yaml:"min_points"`
	MinSpringPointRatio float64 `yaml:"min_spring_point_ratio"`
	MaxRadiusFrac       float64 `yaml:"max_radius_frac"` // Blueprint radius ceiling, fraction of world size
	MinTypeDiversity    int     `yaml:"min_type_diversity"`
	RequireHarvester    bool    `yaml:"require_harvester"`
	RequireActuator     bool    `yaml:"require_actuator"`
}

// MutationConfig holds inheritance-time mutation parameters.
type MutationConfig struct {
	Rate           float64 `yaml:"rate"`            // Scalar gene jitter rate
	GlobalModifier float64 `yaml:"global_modifier"` // Multiplies all jitter rates
	FlipChance     float64 `yaml:"flip_chance"`     // Boolean/categorical resample probability

	ExtrusionWeight float64 `yaml:"extrusion_weight"` // Structural path selection weights
	GraftWeight     float64 `yaml:"graft_weight"`
	NoneWeight      float64 `yaml:"none_weight"`

	ExtrusionClearance float64 `yaml:"extrusion_clearance"`
	GraftMaxPoints     int     `yaml:"graft_max_points"`
	GraftSearchRadius  float64 `yaml:"graft_search_radius"`
	GraftAttachSprings int     `yaml:"graft_attach_springs"`
	GraftAttachRadius  float64 `yaml:"graft_attach_radius"`

	Viability ViabilityConfig `yaml:"viability"`
}

// ReproductionConfig holds fertility gating and offspring placement parameters.
type ReproductionConfig struct {
	Enabled bool `yaml:"enabled"`

	PopFloor    int     `yaml:"pop_floor"`    // Density scale is 1 below this population
	PopCeiling  int     `yaml:"pop_ceiling"`  // Density scale reaches its minimum here
	LocalRadius float64 `yaml:"local_radius"` // Neighbor-count sampling radius
	LocalSoft   int     `yaml:"local_soft"`   // Neighbors where local crowding starts
	LocalHard   int     `yaml:"local_hard"`   // Neighbors where local scale hits minimum
	MinScale    float64 `yaml:"min_scale"`    // Lower clamp for each density term

	MinNutrient float64 `yaml:"min_nutrient"` // Hard block below this local nutrient
	MinLight    float64 `yaml:"min_light"`    // Hard block below this local light

	RingMinFactor      float64 `yaml:"ring_min_factor"` // Offspring ring radii, in parent bounding radii
	RingMaxFactor      float64 `yaml:"ring_max_factor"`
	PlacementClearance float64 `yaml:"placement_clearance"`
	PlacementAttempts  int     `yaml:"placement_attempts"`

	NutrientDebit   float64 `yaml:"nutrient_debit"`
	LightDebit      float64 `yaml:"light_debit"`
	ChildEnergyCost float64 `yaml:"child_energy_cost"` // Flat parent cost per placed child
	ParentCostFrac  float64 `yaml:"parent_cost_frac"`  // Extra proportional cost if any child placed

	FailedCooldownTicks int `yaml:"failed_cooldown_ticks"`
}

// FluidConfig holds the fluid field collaborator parameters.
type FluidConfig struct {
	Cols         int     `yaml:"cols"`
	Rows         int     `yaml:"rows"`
	FadeVelocity float64 `yaml:"fade_velocity"`
	FadeDye      float64 `yaml:"fade_dye"`

	NoiseScale     float64 `yaml:"noise_scale"`    // Base-drift noise frequency
	NoiseStrength  float64 `yaml:"noise_strength"` // Base-drift magnitude
	NoiseTimeSpeed float64 `yaml:"noise_time_speed"`
}

// ResourceConfig holds nutrient/light field parameters.
type ResourceConfig struct {
	NutrientMultiplier float64 `yaml:"nutrient_multiplier"`
	LightMultiplier    float64 `yaml:"light_multiplier"`
	RegenRate          float64 `yaml:"regen_rate"`

	Scale      float64 `yaml:"scale"`
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`

	LightDepthFalloff float64 `yaml:"light_depth_falloff"` // Light loss per unit depth fraction
	Seed              int64   `yaml:"seed"`
}

// ParticlesConfig holds the free food particle pool parameters.
type ParticlesConfig struct {
	TargetCount int     `yaml:"target_count"`
	SpawnRate   int     `yaml:"spawn_rate"`
	EnergyValue float64 `yaml:"energy_value"`
	Drift       float64 `yaml:"drift"` // Fluid entrainment factor
}

// BrainConfig holds fallback actuation pattern parameters.
type BrainConfig struct {
	FallbackAmplitude float64 `yaml:"fallback_amplitude"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial      int `yaml:"initial"`
	Max          int `yaml:"max"`
	RespawnFloor int `yaml:"respawn_floor"`
	RespawnCount int `yaml:"respawn_count"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow    int `yaml:"stats_window"`
	OutputInterval int `yaml:"output_interval"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellW float64 // World units per fluid cell, X
	CellH float64 // World units per fluid cell, Y
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Fluid.Cols <= 0 {
		c.Fluid.Cols = 1
	}
	if c.Fluid.Rows <= 0 {
		c.Fluid.Rows = 1
	}
	c.Derived.CellW = c.World.Width / float64(c.Fluid.Cols)
	c.Derived.CellH = c.World.Height / float64(c.Fluid.Rows)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
