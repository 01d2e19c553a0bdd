package market

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/logger"
	"github.com/spigell/trajectory/internal/source"
)

// ErrPrimaryCorpusMissing means the target-role corpus could not be found.
// The engine cannot serve requests without it.
var ErrPrimaryCorpusMissing = errors.New("primary corpus is missing")

// Opener resolves a corpus location to a reader.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Sources names the corpus inputs. Only Target is required.
type Sources struct {
	Target       string `mapstructure:"target"`
	Aspirational string `mapstructure:"aspirational"`
	CareerPath   string `mapstructure:"career-path"`
}

// CareerPaths maps a role to its probable next roles and their probabilities.
type CareerPaths map[string]map[string]float64

// Corpus is the loaded, not yet prepared, market dataset.
type Corpus struct {
	Records     []JobRecord
	CareerPaths CareerPaths
	// HasCompany reports whether any input carried a company column.
	HasCompany bool
}

var columnAliases = map[string][]string{
	"standard_title": {"standard_title", "title", "job_title"},
	"company_name":   {"company_name", "companyname", "company", "organization", "org"},
	"location":       {"location"},
	"avg_salary_inr": {"avg_salary_inr"},
	"role_volume":    {"role_volume"},
	"fgm_score":      {"fgm_score"},
	"skills_list":    {"skills_list"},
	"skill_graph":    {"skill_graph"},
}

// Load reads the target and aspirational corpora and the career-path model.
func Load(ctx context.Context, opener Opener, src Sources, log *zap.Logger) (*Corpus, error) {
	log = logger.OrNop(log)

	target, hasCompany, err := readTable(ctx, opener, src.Target, TierTarget)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPrimaryCorpusMissing, src.Target)
		}
		return nil, fmt.Errorf("reading target corpus %q: %w", src.Target, err)
	}
	log.Info("target corpus loaded", zap.String("location", src.Target), zap.Int("rows", len(target)))

	corpus := &Corpus{Records: target, HasCompany: hasCompany, CareerPaths: CareerPaths{}}

	if strings.TrimSpace(src.Aspirational) == "" {
		log.Warn("aspirational corpus is not configured, proceeding without it")
	} else {
		aspirational, company, err := readTable(ctx, opener, src.Aspirational, TierAspirational)
		if err != nil {
			log.Warn("could not load aspirational corpus, proceeding without it",
				zap.String("location", src.Aspirational),
				zap.Error(err),
			)
		} else {
			corpus.Records = append(corpus.Records, aspirational...)
			corpus.HasCompany = corpus.HasCompany || company
			log.Info("aspirational corpus loaded", zap.String("location", src.Aspirational), zap.Int("rows", len(aspirational)))
		}
	}

	if strings.TrimSpace(src.CareerPath) == "" {
		log.Warn("career path model is not configured, proceeding without it")
	} else {
		paths, err := readCareerPaths(ctx, opener, src.CareerPath)
		if err != nil {
			log.Warn("could not load career path model, proceeding without it",
				zap.String("location", src.CareerPath),
				zap.Error(err),
			)
		} else {
			corpus.CareerPaths = paths
			log.Info("career path model loaded", zap.Int("roles", len(paths)))
		}
	}

	return corpus, nil
}

func readTable(ctx context.Context, opener Opener, uri string, tier Tier) ([]JobRecord, bool, error) {
	rc, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	return ParseTable(rc, tier)
}

// ParseTable decodes a CSV corpus, tagging every row with tier. Malformed
// skill cells become empty containers; rows without a title are skipped.
func ParseTable(r io.Reader, tier Tier) ([]JobRecord, bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, errors.New("corpus is empty")
		}
		return nil, false, fmt.Errorf("reading header: %w", err)
	}

	columns := mapColumns(header)
	if _, ok := columns["standard_title"]; !ok {
		return nil, false, errors.New("corpus has no standard_title column")
	}
	_, hasCompany := columns["company_name"]

	records := make([]JobRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading row %d: %w", len(records)+2, err)
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		title := cell("standard_title")
		if title == "" {
			continue
		}

		records = append(records, JobRecord{
			StandardTitle: title,
			CompanyName:   cell("company_name"),
			Location:      cell("location"),
			AvgSalaryINR:  parseNumber(cell("avg_salary_inr")),
			RoleVolume:    parseNumber(cell("role_volume")),
			TrendScore:    parseNumber(cell("fgm_score")),
			Skills:        ParseSkillList(cell("skills_list")),
			Graph:         ParseSkillGraph(cell("skill_graph")),
			Tier:          tier,
		})
	}

	return records, hasCompany, nil
}

func mapColumns(header []string) map[string]int {
	normalized := make(map[string]int, len(header))
	for idx, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if _, seen := normalized[key]; !seen {
			normalized[key] = idx
		}
	}

	columns := make(map[string]int, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := normalized[alias]; ok {
				columns[canonical] = idx
				break
			}
		}
	}
	return columns
}

func parseNumber(raw string) Number {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	switch strings.ToLower(raw) {
	case "", "nan", "none", "null", "na":
		return Number{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Known(v)
}

func readCareerPaths(ctx context.Context, opener Opener, uri string) (CareerPaths, error) {
	rc, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	paths := CareerPaths{}
	if err := json.NewDecoder(rc).Decode(&paths); err != nil {
		return nil, fmt.Errorf("decoding career path model: %w", err)
	}
	return paths, nil
}
