package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/trajectory/internal/source"
)

type memOpener map[string]string

func (m memOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	body, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, source.ErrNotFound)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

const targetCSV = `Standard_Title,Company,Location,avg_salary_inr,role_volume,fgm_score,skills_list,skill_graph
Data Analyst,Acme,Pune,600000,120,1.5,"['SQL', 'Python']","{'Programming Languages': ['SQL', 'Python']}"
DevOps,Globex,Delhi,,40,,"['Docker']",not-a-graph
,Nobody,Nowhere,1,1,1,[],{}
`

const aspirationalCSV = `standard_title,company_name,location,avg_salary_inr,role_volume,fgm_score,skills_list,skill_graph
Data Analyst,Google,Bengaluru,2500000,,2.0,"['SQL', 'Looker']","{'Key Concepts': ['Statistics']}"
`

func TestParseTable(t *testing.T) {
	records, hasCompany, err := ParseTable(strings.NewReader(targetCSV), TierTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasCompany {
		t.Fatalf("expected company column to be detected via alias")
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (untitled row skipped), got %d", len(records))
	}

	da := records[0]
	if da.StandardTitle != "Data Analyst" || da.CompanyName != "Acme" || da.Tier != TierTarget {
		t.Fatalf("unexpected record: %+v", da)
	}
	if !da.AvgSalaryINR.Valid || da.AvgSalaryINR.Value != 600000 {
		t.Fatalf("unexpected salary: %+v", da.AvgSalaryINR)
	}
	if len(da.Graph) != 1 || len(da.Graph[0].Skills) != 2 {
		t.Fatalf("unexpected graph: %+v", da.Graph)
	}

	devops := records[1]
	if devops.AvgSalaryINR.Valid || devops.TrendScore.Valid {
		t.Fatalf("expected missing numbers, got %+v", devops)
	}
	if devops.Graph == nil || len(devops.Graph) != 0 {
		t.Fatalf("expected empty graph for malformed cell, got %#v", devops.Graph)
	}
}

func TestParseTableRequiresTitle(t *testing.T) {
	_, _, err := ParseTable(strings.NewReader("company,location\nAcme,Pune\n"), TierTarget)
	if err == nil {
		t.Fatal("expected error for missing title column")
	}
}

func TestLoadPrimaryMissingIsFatal(t *testing.T) {
	_, err := Load(context.Background(), memOpener{}, Sources{Target: "target.csv"}, zap.NewNop())
	if !errors.Is(err, ErrPrimaryCorpusMissing) {
		t.Fatalf("expected ErrPrimaryCorpusMissing, got %v", err)
	}
}

func TestLoadDegradesOptionalInputs(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	corpus, err := Load(context.Background(), memOpener{"target.csv": targetCSV}, Sources{
		Target:       "target.csv",
		Aspirational: "aspirational.csv",
		CareerPath:   "paths.json",
	}, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(corpus.Records) != 2 {
		t.Fatalf("expected target rows only, got %d", len(corpus.Records))
	}
	if len(corpus.CareerPaths) != 0 {
		t.Fatalf("expected empty career paths")
	}
	if got := observed.Len(); got != 2 {
		t.Fatalf("expected 2 warnings, got %d", got)
	}
}

func TestLoadConcatenatesTiers(t *testing.T) {
	opener := memOpener{
		"target.csv":       targetCSV,
		"aspirational.csv": aspirationalCSV,
		"paths.json":       `{"Data Analyst": {"Senior Data Analyst": 0.6, "Data Scientist": 0.4}}`,
	}

	corpus, err := Load(context.Background(), opener, Sources{
		Target:       "target.csv",
		Aspirational: "aspirational.csv",
		CareerPath:   "paths.json",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(corpus.Records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(corpus.Records))
	}
	if corpus.Records[2].Tier != TierAspirational {
		t.Fatalf("expected aspirational tier for appended row")
	}

	ds := corpus.Prepare()
	steps := ds.NextSteps("data analyst")
	if math.Abs(steps["Senior Data Analyst"]-0.6) > 1e-9 {
		t.Fatalf("unexpected next steps: %v", steps)
	}
	if ds.NextSteps("DevOps") != nil {
		t.Fatalf("expected nil next steps for unknown role")
	}
}
