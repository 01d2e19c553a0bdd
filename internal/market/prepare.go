package market

import (
	"maps"
	"math"
	"slices"
	"sort"
	"strings"
)

const (
	demandVolumeWeight = 0.4
	demandTrendWeight  = 0.6
)

// Dataset is the prepared, read-only corpus shared by all requests. Its
// normalization frame is fixed when Prepare runs; new rows require a reload.
type Dataset struct {
	jobs        []Job
	careerPaths CareerPaths
	foldedPaths map[string]string
	hasCompany  bool
}

// Prepare imputes missing numeric fields and computes the normalized salary and
// demand columns over the whole corpus.
func (c *Corpus) Prepare() *Dataset {
	n := len(c.Records)
	jobs := make([]Job, n)
	for i, r := range c.Records {
		jobs[i] = Job{JobRecord: r, Index: i}
	}

	imputeByTitle(jobs, func(j *Job) *Number { return &j.RoleVolume })
	imputeByTitle(jobs, func(j *Job) *Number { return &j.TrendScore })

	salary := make([]float64, n)
	logVolume := make([]float64, n)
	trend := make([]float64, n)
	for i, j := range jobs {
		if j.AvgSalaryINR.Valid {
			salary[i] = j.AvgSalaryINR.Value
		}

		volume := 1.0
		if j.RoleVolume.Valid && j.RoleVolume.Value > 0 {
			volume = j.RoleVolume.Value
		}
		logVolume[i] = math.Log(volume)

		if j.TrendScore.Valid {
			trend[i] = j.TrendScore.Value
		}
	}

	salary = minMax(salary)
	logVolume = minMax(logVolume)
	trend = minMax(trend)

	for i := range jobs {
		jobs[i].NormSalary = salary[i]
		jobs[i].NormVolume = logVolume[i]
		jobs[i].NormTrend = trend[i]
		jobs[i].NormDemand = demandVolumeWeight*logVolume[i] + demandTrendWeight*trend[i]
	}

	paths := c.CareerPaths
	if paths == nil {
		paths = CareerPaths{}
	}

	// Keys differing only in case resolve to the first one in sorted order.
	folded := make(map[string]string, len(paths))
	for _, name := range slices.Sorted(maps.Keys(paths)) {
		key := strings.ToLower(name)
		if _, ok := folded[key]; !ok {
			folded[key] = name
		}
	}

	return &Dataset{jobs: jobs, careerPaths: paths, foldedPaths: folded, hasCompany: c.HasCompany}
}

// imputeByTitle fills missing values with the mean of known values sharing the
// same standard title. Groups without any known value stay missing.
func imputeByTitle(jobs []Job, field func(*Job) *Number) {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for i := range jobs {
		v := field(&jobs[i])
		if !v.Valid {
			continue
		}
		g, ok := groups[jobs[i].StandardTitle]
		if !ok {
			g = &acc{}
			groups[jobs[i].StandardTitle] = g
		}
		g.sum += v.Value
		g.count++
	}

	for i := range jobs {
		v := field(&jobs[i])
		if v.Valid {
			continue
		}
		if g, ok := groups[jobs[i].StandardTitle]; ok && g.count > 0 {
			*v = Known(g.sum / float64(g.count))
		}
	}
}

// minMax scales values into [0,1]. A constant column scales to all zeros.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// Len returns the number of prepared rows.
func (d *Dataset) Len() int {
	return len(d.jobs)
}

// Jobs returns a request-local copy of the prepared rows. Skill slices inside
// the rows are shared and must be treated as read-only.
func (d *Dataset) Jobs() []Job {
	return slices.Clone(d.jobs)
}

// HasCompany reports whether the corpus carries company names.
func (d *Dataset) HasCompany() bool {
	return d.hasCompany
}

// NextSteps returns the probable next roles for role, or nil when unknown.
func (d *Dataset) NextSteps(role string) map[string]float64 {
	if steps, ok := d.careerPaths[role]; ok {
		return maps.Clone(steps)
	}
	if name, ok := d.foldedPaths[strings.ToLower(role)]; ok {
		return maps.Clone(d.careerPaths[name])
	}
	return nil
}

// RoleSummary counts a role's rows per tier.
type RoleSummary struct {
	Title        string `json:"title"`
	Target       int    `json:"target"`
	Aspirational int    `json:"aspirational"`
}

// Roles lists the distinct standard titles in the corpus, sorted by name.
func (d *Dataset) Roles() []RoleSummary {
	byTitle := make(map[string]*RoleSummary)
	for _, j := range d.jobs {
		s, ok := byTitle[j.StandardTitle]
		if !ok {
			s = &RoleSummary{Title: j.StandardTitle}
			byTitle[j.StandardTitle] = s
		}
		switch j.Tier {
		case TierAspirational:
			s.Aspirational++
		default:
			s.Target++
		}
	}

	out := make([]RoleSummary, 0, len(byTitle))
	for _, s := range byTitle {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Title < out[k].Title })
	return out
}
