package assigner

// planClassSizes 根据大小班配置和实际参与分班的学生数计算每个班的目标班额
// 返回的班额之和恒等于 n，特殊学生已经在调用之前被剔除
func planClassSizes(n, bigCount, smallCount, smallSize int) []int {
	totalClasses := bigCount + smallCount
	if totalClasses < 1 {
		return []int{n}
	}

	var sizes []int

	switch {
	case bigCount > 0 && smallCount > 0:
		// 小班班额不能超过平均可分到的人数，否则会把学生全部划入小班
		actualSmallSize := min(smallSize, n/smallCount)
		remaining := n - smallCount*actualSmallSize
		if remaining < bigCount {
			// 小班把学生占完了，大班分不到人，退化为平均分配
			sizes = evenSplit(n, totalClasses)
		} else {
			sizes = evenSplit(remaining, bigCount)
			for i := 0; i < smallCount; i++ {
				sizes = append(sizes, actualSmallSize)
			}
		}
	case bigCount > 0:
		sizes = evenSplit(n, bigCount)
	default:
		sizes = evenSplit(n, smallCount)
	}

	return fixSizeSum(sizes, n)
}

// fitExplicitSizes 把显式给出的班额列表按比例调整到实际学生数
func fitExplicitSizes(classSizes []int, n int) []int {
	sizes := make([]int, len(classSizes))
	copy(sizes, classSizes)

	target := 0
	for _, size := range sizes {
		target += size
	}
	if target == n {
		return sizes
	}

	ratio := 1.0
	if target > 0 {
		ratio = float64(n) / float64(target)
	}
	for i, size := range sizes {
		sizes[i] = max(1, int(float64(size)*ratio+0.5))
	}

	return fixSizeSum(sizes, n)
}

// evenSplit 把 n 平均分成 count 份，余数依次加到前面的班级上
func evenSplit(n, count int) []int {
	base := n / count
	extra := n % count
	sizes := make([]int, count)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// fixSizeSum 修正取整带来的偏差，保证班额之和恰好等于 n
func fixSizeSum(sizes []int, n int) []int {
	sum := 0
	for _, size := range sizes {
		sum += size
	}
	diff := n - sum

	for i := 0; i < abs(diff); i++ {
		idx := i % len(sizes)
		if diff > 0 {
			sizes[idx]++
		} else {
			sizes[idx]--
		}
	}

	return sizes
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
