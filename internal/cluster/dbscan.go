package cluster

import "math"

// Noise 噪声点的簇标签
const Noise = -1

// euclidean 两个等长向量的欧氏距离
func euclidean(a, b []float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

// densityCluster 密度聚类
// minSamples=1 的设定下每个点都是核心点，聚类退化为
// eps 邻接图上的连通分量；小于 minClusterSize 的分量整体降为噪声。
// 簇编号按成员首次出现的顺序从0递增，结果对同一输入完全确定
func densityCluster(points [][]float64, eps float64, minClusterSize int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n == 0 {
		return labels
	}
	if minClusterSize < 1 {
		minClusterSize = 1
	}

	// 并查集求连通分量
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if euclidean(points[i], points[j]) <= eps {
				union(i, j)
			}
		}
	}

	componentSize := make(map[int]int, n)
	for i := 0; i < n; i++ {
		componentSize[find(i)]++
	}

	next := 0
	componentLabel := make(map[int]int, len(componentSize))
	for i := 0; i < n; i++ {
		root := find(i)
		if componentSize[root] < minClusterSize {
			continue // 小分量整体视为噪声
		}
		label, ok := componentLabel[root]
		if !ok {
			label = next
			next++
			componentLabel[root] = label
		}
		labels[i] = label
	}

	return labels
}
