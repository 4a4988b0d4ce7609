// Package flooding 相似度泛洪匹配引擎
//
// 一次匹配：过滤依赖 -> 构建两张模式图 -> 连通图 -> 传播图 -> 初始映射 -> 不动点迭代 -> 投影到列矩阵。
// 每次调用独立构建并丢弃所有图，不共享可变状态，可以并发调用。
package flooding

import (
	"math"

	"schema-matcher/internal/graph"
)

// Stats 迭代统计
type Stats struct {
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
	Converged  bool    `json:"converged"`
}

// Observer 每轮迭代结束后回调
type Observer func(iteration int, residual float64)

// Iterate 不动点迭代
//
// 每轮按节点对的固定顺序用 sigma0、sigmaI 计算 sigmaNext（Jacobi 更新），除以本轮最大值，
// 与 sigmaI 比较残差后整体替换 sigmaI。残差小于 epsilon 或达到 maxIterations 时停止。
func Iterate(pg *graph.PropagationGraph, sigma0 Mapping, formula Formula, maxIterations int, epsilon float64, observer Observer) (Mapping, Stats) {
	vertices := pg.Vertices()
	n := len(vertices)

	s0 := make([]float64, n)
	for i, p := range vertices {
		s0[i] = sigma0[p]
	}
	current := append([]float64(nil), s0...)
	next := make([]float64, n)

	var stats Stats
	for it := 1; it <= maxIterations; it++ {
		hi := 0.0
		for i := 0; i < n; i++ {
			next[i] = formula.Next(i, s0, current, pg.Incoming(i))
			if next[i] > hi {
				hi = next[i]
			}
		}
		if hi > 0 {
			for i := range next {
				next[i] /= hi
			}
		}

		stats.Iterations = it
		stats.Residual = Residual(current, next)
		stats.Converged = Converged(stats.Residual, epsilon)
		current, next = next, current

		if observer != nil {
			observer(it, stats.Residual)
		}
		if stats.Converged {
			break
		}
	}

	out := make(Mapping, n)
	for i, p := range vertices {
		out[p] = current[i]
	}
	return out, stats
}

// Residual sqrt(Σ (a_i - b_i)²)
func Residual(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Converged 残差是否小于 epsilon；NaN 残差不算收敛
func Converged(residual, epsilon float64) bool {
	return residual < epsilon
}
