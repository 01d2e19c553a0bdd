package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/trajectory/internal/recommend"
)

const defaultParallel = 4

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank market roles for one or more requests and print tiered recommendations",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("request", "r", "-", "request file holding one request object or an array of them; - reads stdin")
	recommendCmd.Flags().IntP("parallel", "p", defaultParallel, "how many requests of a batch run at once")
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()
	e := newEnv(ctx)

	path, _ := cmd.Flags().GetString("request")
	parallel, _ := cmd.Flags().GetInt("parallel")

	requests, batch, err := readRequests(path)
	if isRequestError(err) {
		e.rejectRequest("request rejected", err)
		return
	}
	if err != nil {
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("reading requests", zap.Error(err), zap.String("path", path))
	}

	m, err := e.matcher(ctx)
	if err != nil {
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("creating semantic matcher", zap.Error(err))
	}

	engine, err := e.engine(ctx, m)
	if err != nil {
		_ = printJSON(recommend.NewErrorResponse(err))
		e.logger.Fatal("creating recommendation engine", zap.Error(err))
	}

	results, failed := recommendAll(ctx, engine, requests, parallel, e.logger)

	if batch {
		err = printJSON(results)
	} else {
		err = printJSON(results[0])
	}
	if err != nil {
		e.logger.Fatal("writing output", zap.Error(err))
	}

	if failed > 0 {
		e.logger.Fatal("recommendation failed on a dependency", zap.Int("failed_requests", failed))
	}
}

// recommendAll serves requests concurrently against the shared engine. A
// failing request is reported in its own slot and never stops the others.
func recommendAll(ctx context.Context, engine *recommend.Engine, requests []recommend.Request, parallel int, l *zap.Logger) ([]any, int) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]any, len(requests))
	failures := make([]bool, len(requests))

	var g errgroup.Group
	g.SetLimit(parallel)

	for i, req := range requests {
		g.Go(func() error {
			out, err := engine.Recommend(ctx, req)
			switch {
			case err == nil:
				results[i] = out
			case recommend.IsRequestError(err):
				l.Info("request rejected", zap.Int("request", i), zap.Error(err))
				results[i] = recommend.NewErrorResponse(err)
			default:
				l.Error("request failed", zap.Int("request", i), zap.Error(err))
				results[i] = recommend.NewErrorResponse(err)
				failures[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return results, failed
}

// readRequests decodes a single request or an array of requests.
func readRequests(path string) ([]recommend.Request, bool, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, false, err
	}

	if !gjson.ValidBytes(data) {
		return nil, false, fmt.Errorf("%w: request is not valid json", recommend.ErrInvalidRequest)
	}

	if gjson.ParseBytes(data).IsArray() {
		var requests []recommend.Request
		if err := json.Unmarshal(data, &requests); err != nil {
			return nil, true, fmt.Errorf("%w: %w", recommend.ErrInvalidRequest, err)
		}
		if len(requests) == 0 {
			return nil, true, fmt.Errorf("%w: empty request batch", recommend.ErrInvalidRequest)
		}
		return requests, true, nil
	}

	var req recommend.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, false, fmt.Errorf("%w: %w", recommend.ErrInvalidRequest, err)
	}
	return []recommend.Request{req}, false, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
