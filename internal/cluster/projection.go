package cluster

import (
	"math"
	"math/rand"
)

// 投影随机初始化的固定种子，保证同一输入得到同一张图
const projectionSeed = 42

// project2D 把高维向量投影到二维平面（主成分方向）
// 仅用于可视化坐标，簇成员关系不依赖投影结果。
// 幂迭代求前两个主成分，随机初始向量用固定种子，结果确定
func project2D(points [][]float64) [][2]float64 {
	n := len(points)
	out := make([][2]float64, n)
	if n == 0 {
		return out
	}
	dim := len(points[0])
	if dim == 0 {
		return out
	}

	// 中心化
	mean := make([]float64, dim)
	for _, p := range points {
		for d, v := range p {
			mean[d] += v
		}
	}
	for d := range mean {
		mean[d] /= float64(n)
	}
	centered := make([][]float64, n)
	for i, p := range points {
		centered[i] = make([]float64, dim)
		for d, v := range p {
			centered[i][d] = v - mean[d]
		}
	}

	rng := rand.New(rand.NewSource(projectionSeed))
	pc1 := powerIteration(centered, nil, rng)
	pc2 := powerIteration(centered, pc1, rng)

	for i, p := range centered {
		out[i][0] = dotVec(p, pc1)
		out[i][1] = dotVec(p, pc2)
	}
	return out
}

// powerIteration 幂迭代求中心化数据的主成分方向
// deflate 非空时先剔除该方向（求第二主成分）
func powerIteration(centered [][]float64, deflate []float64, rng *rand.Rand) []float64 {
	if len(centered) == 0 {
		return nil
	}
	dim := len(centered[0])

	v := make([]float64, dim)
	for d := range v {
		v[d] = rng.Float64() - 0.5
	}
	orthogonalize(v, deflate)
	normalizeVec(v)

	const iterations = 100
	for iter := 0; iter < iterations; iter++ {
		// w = Cov·v，协方差矩阵不显式构造：w = Xᵀ(Xv)/n
		next := make([]float64, dim)
		for _, row := range centered {
			proj := dotVec(row, v)
			for d, val := range row {
				next[d] += proj * val
			}
		}
		orthogonalize(next, deflate)
		if normalizeVec(next) == 0 {
			break
		}
		v = next
	}
	return v
}

func dotVec(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// orthogonalize 从 v 中剔除 along 方向的分量
func orthogonalize(v, along []float64) {
	if along == nil {
		return
	}
	proj := dotVec(v, along)
	for i := range v {
		v[i] -= proj * along[i]
	}
}

// normalizeVec 就地归一化，返回原始范数
func normalizeVec(v []float64) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return 0
	}
	for i := range v {
		v[i] /= norm
	}
	return norm
}
