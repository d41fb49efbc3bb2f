package assigner

// snakeAssign 蛇形分配：按名次遍历学生，班级下标来回往返，每放置一名学生就前进一格
// 这样相邻名次的学生会落在相邻的班级中，而不是集中在同一个班里
// 当前班级满员时沿当前方向向前探测，最多探测 2*班级数 次，仍然找不到就按下标顺序放入第一个有空位的班级
func snakeAssign(n int, classSizes []int) []int {
	nClasses := len(classSizes)
	remaining := make([]int, nClasses)
	copy(remaining, classSizes)

	assignments := make([]int, 0, n)

	direction := 1
	current := 0

	for i := 0; i < n; i++ {
		attempts := 0
		for remaining[current] <= 0 && attempts < nClasses*2 {
			next := current + direction
			if next >= nClasses {
				direction = -1
				next = current + direction
			} else if next < 0 {
				direction = 1
				next = current + direction
			}
			current = next
			attempts++
		}

		// 兜底：保证每名学生都一定会被放置，且不会超出任何班级的目标班额
		if remaining[current] <= 0 {
			for j := 0; j < nClasses; j++ {
				if remaining[j] > 0 {
					current = j
					break
				}
			}
		}

		assignments = append(assignments, current)
		remaining[current]--

		next := current + direction
		if next >= nClasses {
			direction = -1
		} else if next < 0 {
			direction = 1
		} else {
			current = next
		}
	}

	return assignments
}

// balanceTracker 增量维护每个班级在每个指标上的成绩总和与人数
// 交换两名学生只需要 O(指标数) 的增量更新，避免每次都对全体学生重新分组求均值
type balanceTracker struct {
	nClasses int
	nMetrics int
	sums     [][]float64 // sums[metric][class]
	counts   []int       // counts[class]
	vectors  [][]float64 // vectors[studentIdx] = 该学生的指标向量
}

func newBalanceTracker(students []*student, assignment []int, nClasses int) *balanceTracker {
	nMetrics := len(students[0].metrics)

	t := &balanceTracker{
		nClasses: nClasses,
		nMetrics: nMetrics,
		sums:     make([][]float64, nMetrics),
		counts:   make([]int, nClasses),
		vectors:  make([][]float64, len(students)),
	}
	for m := range t.sums {
		t.sums[m] = make([]float64, nClasses)
	}

	for i, s := range students {
		t.vectors[i] = s.metrics
		ci := assignment[i]
		for m, v := range s.metrics {
			t.sums[m][ci] += v
		}
		t.counts[ci]++
	}

	return t
}

// metricRanges 返回每个指标上各班平均分的极差
func (t *balanceTracker) metricRanges() []float64 {
	ranges := make([]float64, t.nMetrics)
	for m := 0; m < t.nMetrics; m++ {
		minMean, maxMean := 0.0, 0.0
		for ci := 0; ci < t.nClasses; ci++ {
			count := t.counts[ci]
			if count < 1 {
				// 班级暂时为空时按人数 1 处理，避免除零
				count = 1
			}
			mean := t.sums[m][ci] / float64(count)
			if ci == 0 || mean < minMean {
				minMean = mean
			}
			if ci == 0 || mean > maxMean {
				maxMean = mean
			}
		}
		ranges[m] = maxMean - minMean
	}
	return ranges
}

// score 计算加权均衡分数：总分极差 + 2 * 各科目极差之和，越小越均衡
func (t *balanceTracker) score() float64 {
	ranges := t.metricRanges()
	score := ranges[0]
	for _, r := range ranges[1:] {
		score += r * 2
	}
	return score
}

// worstMetricClasses 找出加权极差最大的指标，以及该指标上平均分最高和最低的班级
// 在这两个班级之间交换学生最能直接缩小主导的不均衡项
func (t *balanceTracker) worstMetricClasses() (metric, maxClass, minClass int) {
	ranges := t.metricRanges()
	worst := 0
	worstRange := ranges[0]
	for m := 1; m < t.nMetrics; m++ {
		if ranges[m]*2 > worstRange {
			worst = m
			worstRange = ranges[m] * 2
		}
	}

	maxClass, minClass = 0, 0
	var maxMean, minMean float64
	for ci := 0; ci < t.nClasses; ci++ {
		count := t.counts[ci]
		if count < 1 {
			count = 1
		}
		mean := t.sums[worst][ci] / float64(count)
		if ci == 0 || mean > maxMean {
			maxMean = mean
			maxClass = ci
		}
		if ci == 0 || mean < minMean {
			minMean = mean
			minClass = ci
		}
	}

	return worst, maxClass, minClass
}

// applySwap 把学生 a 从 classA 移到 classB，同时把学生 b 从 classB 移到 classA
// 交换不改变任何班级的人数；交换班级参数再调用一次即可撤销
func (t *balanceTracker) applySwap(a, classA, b, classB int) {
	va := t.vectors[a]
	vb := t.vectors[b]
	for m := 0; m < t.nMetrics; m++ {
		t.sums[m][classA] += vb[m] - va[m]
		t.sums[m][classB] += va[m] - vb[m]
	}
}

// optimize 通过随机贪心交换降低均衡分数，只接受严格变优的交换
// assignment 会被原地修改，返回优化后的均衡分数
func (a *Assigner) optimize(students []*student, assignment []int, nClasses int, tracker *balanceTracker) float64 {
	currentScore := tracker.score()
	if nClasses < 2 {
		return currentScore
	}

	// 每个班级中可参与交换的学生下标（锁定的尖子生除外）
	swappable := make([][]int, nClasses)
	for i, s := range students {
		if s.locked {
			continue
		}
		ci := assignment[i]
		swappable[ci] = append(swappable[ci], i)
	}

	noImprovement := 0

	for iter := 0; iter < a.params.MaxIterations; iter++ {
		var classA, classB int

		if a.rng.Float64() < targetedSwapProbability {
			// 针对性交换：在最不均衡指标的最高分班级和最低分班级之间交换
			_, classA, classB = tracker.worstMetricClasses()
			if len(swappable[classA]) == 0 || len(swappable[classB]) == 0 || classA == classB {
				var ok bool
				classA, classB, ok = a.randomClassPair(swappable)
				if !ok {
					break
				}
			}
		} else {
			var ok bool
			classA, classB, ok = a.randomClassPair(swappable)
			if !ok {
				break
			}
		}

		idxA := swappable[classA][a.rng.Intn(len(swappable[classA]))]
		idxB := swappable[classB][a.rng.Intn(len(swappable[classB]))]

		tracker.applySwap(idxA, classA, idxB, classB)
		newScore := tracker.score()

		if newScore < currentScore {
			currentScore = newScore
			removeIndex(swappable, classA, idxA)
			removeIndex(swappable, classB, idxB)
			swappable[classA] = append(swappable[classA], idxB)
			swappable[classB] = append(swappable[classB], idxA)
			assignment[idxA] = classB
			assignment[idxB] = classA
			noImprovement = 0
		} else {
			// 撤销交换
			tracker.applySwap(idxA, classB, idxB, classA)
			noImprovement++
		}

		if noImprovement >= a.params.MaxNoImprovement {
			break
		}
	}

	return currentScore
}

// randomClassPair 在所有还有可交换学生的班级中随机选出两个不同的班级
func (a *Assigner) randomClassPair(swappable [][]int) (int, int, bool) {
	eligible := make([]int, 0, len(swappable))
	for ci, students := range swappable {
		if len(students) > 0 {
			eligible = append(eligible, ci)
		}
	}
	if len(eligible) < 2 {
		return 0, 0, false
	}

	i := a.rng.Intn(len(eligible))
	j := a.rng.Intn(len(eligible) - 1)
	if j >= i {
		j++
	}
	return eligible[i], eligible[j], true
}

func removeIndex(swappable [][]int, class, idx int) {
	list := swappable[class]
	for k, v := range list {
		if v == idx {
			list[k] = list[len(list)-1]
			swappable[class] = list[:len(list)-1]
			return
		}
	}
}
