package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/gap"
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/recommend"
)

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Measure how far a skill set is from a role, optionally at a specific company",
	Run: func(cmd *cobra.Command, _ []string) {
		runGap(cmd)
	},
}

func init() {
	rootCmd.AddCommand(gapCmd)

	gapCmd.Flags().StringSliceP("skills", "s", nil, "user skills, comma separated")
	gapCmd.Flags().String("role", "", "dream role; asked interactively when empty")
	gapCmd.Flags().String("company", "", "dream company (optional)")
	gapCmd.Flags().StringP("request", "r", "", "gap request file; - reads stdin. Overrides the other flags")
}

func runGap(cmd *cobra.Command) {
	ctx := context.Background()
	e := newEnv(ctx)

	req, err := gapRequest(cmd)
	if isRequestError(err) {
		e.rejectRequest("gap request rejected", err)
		return
	}
	if err != nil {
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("reading gap request", zap.Error(err))
	}

	if strings.TrimSpace(req.DreamRole) == "" {
		role, err := promptRole(e.dataset.Roles())
		if err != nil {
			_ = printJSON(recommend.NewErrorResponse(err))
			e.logger.Fatal("selecting a role", zap.Error(err))
		}
		req.DreamRole = role
	}

	m, err := e.matcher(ctx)
	if err != nil {
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("creating semantic matcher", zap.Error(err))
	}

	analyzer := gap.New(e.dataset, m, e.config.Engine.SkillGapLimit, e.logger)
	result, err := analyzer.Analyze(ctx, req.UserSkills, req.DreamRole, req.Company())

	switch {
	case isRequestError(err):
		e.rejectRequest("gap request rejected", err)
		return
	case err != nil:
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("gap analysis failed", zap.Error(err))
	default:
		err = printJSON(result)
	}
	if err != nil {
		e.logger.Fatal("writing output", zap.Error(err))
	}
}

func gapRequest(cmd *cobra.Command) (gap.Request, error) {
	var req gap.Request

	if path, _ := cmd.Flags().GetString("request"); path != "" {
		data, err := readInput(path)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("%w: %w", recommend.ErrInvalidRequest, err)
		}
		return req, nil
	}

	req.UserSkills, _ = cmd.Flags().GetStringSlice("skills")
	req.DreamRole, _ = cmd.Flags().GetString("role")
	if company, _ := cmd.Flags().GetString("company"); company != "" {
		req.DreamCompany = &company
	}
	return req, nil
}

func promptRole(roles []market.RoleSummary) (string, error) {
	if len(roles) == 0 {
		return "", errors.New("the corpus has no roles to choose from")
	}

	items := make([]string, 0, len(roles))
	for _, r := range roles {
		items = append(items, r.Title)
	}

	prompt := promptui.Select{
		Label: "Dream role",
		Items: items,
		Size:  10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}

	_, role, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role is required: %w", err)
	}
	return role, nil
}
