// Package tuning 调参协议：引擎连接调参服务，按收到的参数快照重新计算平均 F1
package tuning

import (
	"context"

	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/schema"

	"golang.org/x/sync/errgroup"
)

// Scenario 已加载的匹配场景
type Scenario struct {
	Name   string
	Source *schema.Schema
	Target *schema.Schema
	Truth  evaluate.GroundTruth
}

// LoadScenarios 读取配置中的所有场景
func LoadScenarios(list []config.Scenario) ([]Scenario, error) {
	out := make([]Scenario, 0, len(list))
	for _, sc := range list {
		source, err := schema.LoadFile(sc.Source)
		if err != nil {
			return nil, err
		}
		target, err := schema.LoadFile(sc.Target)
		if err != nil {
			return nil, err
		}
		var truth evaluate.GroundTruth
		if sc.GroundTruth != "" {
			if truth, err = evaluate.LoadGroundTruth(sc.GroundTruth); err != nil {
				return nil, err
			}
		}
		out = append(out, Scenario{Name: sc.Name, Source: source, Target: target, Truth: truth})
	}
	return out, nil
}

// Scorer 在所有场景上评估一组参数
type Scorer struct {
	scenarios []Scenario
	log       *logger.Logger
}

// NewScorer 创建评分器
func NewScorer(scenarios []Scenario, log *logger.Logger) *Scorer {
	if log == nil {
		log = logger.Nop()
	}
	return &Scorer{scenarios: scenarios, log: log}
}

// Score 并发匹配所有场景，返回 F1 平均值；没有场景时为 0
func (s *Scorer) Score(ctx context.Context, p config.Parameters) (float64, error) {
	if len(s.scenarios) == 0 {
		return 0, nil
	}

	scores := make([]float64, len(s.scenarios))
	g, ctx := errgroup.WithContext(ctx)
	for i, sc := range s.scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errs.Wrap(errs.ErrKindTimeout, "scoring cancelled", err)
			}
			m := flooding.NewMatrix(sc.Source, sc.Target)
			if _, err := flooding.Match(sc.Source, sc.Target, m, p); err != nil {
				return err
			}
			metrics := evaluate.Score(m, sc.Source, sc.Target, sc.Truth)
			scores[i] = metrics.F1
			s.log.DebugWith("scenario scored", map[string]interface{}{
				"scenario":  sc.Name,
				"precision": metrics.Precision,
				"recall":    metrics.Recall,
				"f1":        metrics.F1,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0.0
	for _, v := range scores {
		total += v
	}
	return total / float64(len(scores)), nil
}
