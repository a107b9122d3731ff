package safety

import (
	"context"

	"allergen-scanner/internal/pkg/common"

	"golang.org/x/sync/errgroup"
)

// BatchItem 批次分析項目
type BatchItem struct {
	ID          string        `json:"id,omitempty"`
	Ingredients string        `json:"ingredients"`
	Profile     HealthProfile `json:"profile"`
}

// BatchResult 批次分析結果，順序與輸入相同
type BatchResult struct {
	ID         string     `json:"id"`
	Assessment Assessment `json:"assessment"`
}

// AnalyzeBatch 以最多 workers 個 goroutine 並行分析；context 取消時停止派發
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []BatchItem, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := item.ID
			if id == "" {
				id = common.GenerateUUID()
			}
			results[i] = BatchResult{
				ID:         id,
				Assessment: a.Analyze(item.Ingredients, item.Profile),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
