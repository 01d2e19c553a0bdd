package recommend

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/market"
)

// Filter is one hard constraint applied to the candidate pool.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ctx context.Context, logger *zap.Logger, jobs []market.Job) ([]market.Job, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// RunFilters applies the enabled steps in order and logs every step.
func RunFilters(ctx context.Context, logger *zap.Logger, steps []Filter, jobs []market.Job) ([]market.Job, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, logger, jobs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		jobs = next
	}

	return jobs, nil
}

func buildFilters(cfg Config, quiz Quiz) []Filter {
	return []Filter{
		newMinSalary(quiz.MinSalaryINR),
		newWorkEnergy(quiz.WorkEnergy, cfg.WorkEnergy),
	}
}

type minSalaryFilter struct {
	min float64
}

// newMinSalary drops rows paying below min. Rows without a salary are dropped
// too while the filter is active.
func newMinSalary(min float64) Filter {
	return &minSalaryFilter{min: min}
}

func (f *minSalaryFilter) Name() string { return "min_salary" }

func (f *minSalaryFilter) IsEnabled() bool { return f.min > 0 }

func (f *minSalaryFilter) Apply(_ context.Context, _ *zap.Logger, jobs []market.Job) ([]market.Job, Step, error) {
	initial := len(jobs)
	kept := jobs[:0:0]
	for _, j := range jobs {
		if j.AvgSalaryINR.Valid && j.AvgSalaryINR.Value >= f.min {
			kept = append(kept, j)
		}
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type workEnergyFilter struct {
	energy  string
	allowed map[string]struct{}
	known   bool
}

// newWorkEnergy keeps only the roles mapped to energy. An energy without a
// mapping leaves the pool untouched.
func newWorkEnergy(energy string, table map[string][]string) Filter {
	f := &workEnergyFilter{energy: energy}
	roles, ok := table[energy]
	if energy == "" || !ok {
		return f
	}

	f.known = true
	f.allowed = make(map[string]struct{}, len(roles))
	for _, r := range roles {
		f.allowed[normalize(r)] = struct{}{}
	}
	return f
}

func (f *workEnergyFilter) Name() string { return "work_energy" }

func (f *workEnergyFilter) IsEnabled() bool { return f.energy != "" }

func (f *workEnergyFilter) Apply(_ context.Context, logger *zap.Logger, jobs []market.Job) ([]market.Job, Step, error) {
	initial := len(jobs)
	if !f.known {
		logger.Info("work energy has no role mapping; keeping all roles", zap.String("work_energy", f.energy))
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := jobs[:0:0]
	for _, j := range jobs {
		if _, ok := f.allowed[normalize(j.StandardTitle)]; ok {
			kept = append(kept, j)
		}
	}

	if dropped := initial - len(kept); dropped > 0 {
		logger.Debug("excluding roles outside work energy allow-list",
			zap.String("work_energy", f.energy),
			zap.String("allowed", strings.Join(slices.Sorted(maps.Keys(f.allowed)), ",")),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
