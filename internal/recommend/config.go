package recommend

// Weights is the blend applied to the four normalized features.
type Weights struct {
	Demand     float64 `mapstructure:"demand"`
	Salary     float64 `mapstructure:"salary"`
	Skill      float64 `mapstructure:"skill"`
	Experience float64 `mapstructure:"experience"`
}

const defaultMotivator = "default"

// Config tunes the engine. Non-positive sizes and missing tables fall back to
// DefaultConfig.
type Config struct {
	ShortlistSize         int                 `mapstructure:"shortlist-size"`
	DiscoveryRank         int                 `mapstructure:"discovery-rank"`
	SkillGapLimit         int                 `mapstructure:"skill-gap-limit"`
	TopTierBonus          float64             `mapstructure:"top-tier-bonus"`
	StartupBonus          float64             `mapstructure:"startup-bonus"`
	StartupTrendThreshold float64             `mapstructure:"startup-trend-threshold"`
	Motivators            map[string]Weights  `mapstructure:"motivators"`
	WorkEnergy            map[string][]string `mapstructure:"work-energy"`
}

func DefaultConfig() Config {
	return Config{
		ShortlistSize:         25,
		DiscoveryRank:         5,
		SkillGapLimit:         5,
		TopTierBonus:          0.1,
		StartupBonus:          0.05,
		StartupTrendThreshold: 0.5,
		Motivators: map[string]Weights{
			"salary":          {Demand: 0.2, Salary: 0.5, Skill: 0.2, Experience: 0.1},
			"learning":        {Demand: 0.2, Salary: 0.1, Skill: 0.4, Experience: 0.3},
			"prestige":        {Demand: 0.3, Salary: 0.3, Skill: 0.2, Experience: 0.2},
			"impact":          {Demand: 0.4, Salary: 0.1, Skill: 0.3, Experience: 0.2},
			defaultMotivator: {Demand: 0.3, Salary: 0.2, Skill: 0.3, Experience: 0.2},
		},
		WorkEnergy: map[string][]string{
			"building_products": {
				"Software Engineer", "Software Developer", "Frontend Developer",
				"FullStack Developer", "Backend Developer", "App Developer", "Product Engineer",
			},
			"analyzing_data": {"Data Analyst", "AI/ML Engineer", "Business Analyst"},
			"designing_systems": {
				"DevOps", "Network Engineer", "CyberSecurity Analyst", "Backend Developer", "Software Engineer",
			},
			"solving_business_problems": {"Business Analyst", "Technical Support", "Product Engineer"},
		},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ShortlistSize <= 0 {
		c.ShortlistSize = def.ShortlistSize
	}
	// discovery must sit below the best target pick
	if c.DiscoveryRank < 2 {
		c.DiscoveryRank = def.DiscoveryRank
	}
	if c.SkillGapLimit <= 0 {
		c.SkillGapLimit = def.SkillGapLimit
	}
	if len(c.Motivators) == 0 {
		c.Motivators = def.Motivators
	}
	motivators := make(map[string]Weights, len(c.Motivators)+1)
	for name, w := range c.Motivators {
		motivators[normalize(name)] = w
	}
	if _, ok := motivators[defaultMotivator]; !ok {
		motivators[defaultMotivator] = def.Motivators[defaultMotivator]
	}
	c.Motivators = motivators

	if c.WorkEnergy == nil {
		c.WorkEnergy = def.WorkEnergy
	}
	energy := make(map[string][]string, len(c.WorkEnergy))
	for name, roles := range c.WorkEnergy {
		energy[normalize(name)] = roles
	}
	c.WorkEnergy = energy

	return c
}

// WeightsFor returns the weights of motivator, or the balanced default.
func (c Config) WeightsFor(motivator string) Weights {
	if w, ok := c.Motivators[normalize(motivator)]; ok {
		return w
	}
	return c.Motivators[defaultMotivator]
}
