package analyzer

import "schema-matcher/internal/schema"

// GPDep 函数依赖 X -> A 的 g-pdep 强度
//
//	pdep(X,A)  = Σ_x P(x) Σ_a P(a|x)²
//	selfDep(A) = Σ_a P(a)²
//	epdep(X,A) = selfDep(A) + (|dom X|-1)/(N-1) · (1 - selfDep(A))
//	gpdep      = pdep - epdep
//
// 行数 N ≤ 1 时返回 0。
func GPDep(t *schema.Table, determinant []int, dependant int) float64 {
	n := t.RowCount()
	if n <= 1 || len(determinant) == 0 {
		return 0
	}

	type cell struct{ x, a string }

	xCount := make(map[string]int)
	aCount := make(map[string]int)
	xaCount := make(map[cell]int)
	var xaOrder []cell
	var aOrder []string

	for row := 0; row < n; row++ {
		x := tupleKey(t, determinant, row)
		a := t.Value(dependant, row)

		xCount[x]++
		if aCount[a] == 0 {
			aOrder = append(aOrder, a)
		}
		aCount[a]++
		k := cell{x, a}
		if xaCount[k] == 0 {
			xaOrder = append(xaOrder, k)
		}
		xaCount[k]++
	}

	total := float64(n)

	// Σ_x P(x) Σ_a P(a|x)² = Σ_{x,a} n(x,a)² / (N · n(x))
	pdep := 0.0
	for _, k := range xaOrder {
		nxa := float64(xaCount[k])
		pdep += nxa * nxa / (total * float64(xCount[k.x]))
	}

	selfDep := 0.0
	for _, a := range aOrder {
		p := float64(aCount[a]) / total
		selfDep += p * p
	}

	epdep := selfDep + float64(len(xCount)-1)/(total-1)*(1-selfDep)
	return pdep - epdep
}
