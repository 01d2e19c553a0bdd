package recommend

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrNoSkills       = errors.New("user_skills must not be empty")
	ErrNoCandidates   = errors.New("no jobs match constraints")
	ErrInvalidRequest = errors.New("invalid request")
)

// IsRequestError reports whether err is a documented request-level failure
// rather than a dependency failure.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrNoSkills) || errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrInvalidRequest)
}

// Request is one recommendation request.
type Request struct {
	UserSkills        []string       `json:"user_skills"`
	ExperienceSummary []string       `json:"experience_summary,omitempty"`
	Certifications    []string       `json:"certifications,omitempty"`
	QuizData          map[string]any `json:"quiz_data,omitempty"`
}

// Quiz holds the preferences the engine acts on. Other quiz fields are kept
// in Extra and only echoed back.
type Quiz struct {
	PrimaryMotivator string         `mapstructure:"primary_motivator"`
	MinSalaryINR     float64        `mapstructure:"min_salary_inr"`
	WorkEnergy       string         `mapstructure:"work_energy"`
	CareerGoal       string         `mapstructure:"career_goal"`
	WorkEnvironment  string         `mapstructure:"work_environment"`
	Extra            map[string]any `mapstructure:",remain"`
}

// DecodeQuiz reads free-form quiz data. Numbers given as strings are
// accepted; enum-like values are trimmed and lower-cased.
func DecodeQuiz(data map[string]any) (Quiz, error) {
	var quiz Quiz
	if len(data) == 0 {
		return quiz, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &quiz,
	})
	if err != nil {
		return quiz, fmt.Errorf("create quiz decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return quiz, fmt.Errorf("%w: quiz_data: %w", ErrInvalidRequest, err)
	}

	quiz.PrimaryMotivator = normalize(quiz.PrimaryMotivator)
	quiz.WorkEnergy = normalize(quiz.WorkEnergy)
	quiz.CareerGoal = normalize(quiz.CareerGoal)
	quiz.WorkEnvironment = normalize(quiz.WorkEnvironment)
	if quiz.MinSalaryINR < 0 {
		quiz.MinSalaryINR = 0
	}

	return quiz, nil
}

func (r Request) skills() []string {
	return cleanList(r.UserSkills)
}

// experienceText joins experience lines and certifications. Empty means no
// experience pass.
func (r Request) experienceText() string {
	lines := append(cleanList(r.ExperienceSummary), cleanList(r.Certifications)...)
	return strings.Join(lines, ". ")
}

func (r Request) userContext() map[string]any {
	if r.QuizData == nil {
		return map[string]any{}
	}
	return maps.Clone(r.QuizData)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
