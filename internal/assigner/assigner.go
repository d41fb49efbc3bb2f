package assigner

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/utils"
)

// Assigner 按照给定的参数对一个年级的学生进行均衡分班
// 整个流程为：剔除特殊学生 -> 计算总分和综合分并排名 -> 规划班额 ->
// 多轮（蛇形初始分配 + 贪心交换优化）-> 保留均衡分数最低的一轮
type Assigner struct {
	params   *Parameters
	subjects []string
	rng      *rand.Rand
}

func New(params *Parameters, subjects []string) (*Assigner, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("科目列表不能为空")
	}
	if params.BigClassCount < 0 || params.SmallClassCount < 0 || params.SmallClassSize < 0 {
		return nil, fmt.Errorf("大小班配置不能为负数")
	}
	if params.TopTierRatio < 0 || params.TopTierRatio > 1 {
		return nil, fmt.Errorf("尖子生锁定比例必须在 0 到 1 之间")
	}
	for _, size := range params.ClassSizes {
		if size < 1 {
			return nil, fmt.Errorf("显式班额必须为正数")
		}
	}

	if params.Rounds <= 0 {
		params.Rounds = defaultRounds
	}
	if params.MaxIterations <= 0 {
		params.MaxIterations = defaultMaxIterations
	}
	if params.MaxNoImprovement <= 0 {
		params.MaxNoImprovement = defaultMaxNoImprovement
	}

	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Assigner{
		params:   params,
		subjects: subjects,
		rng:      rng,
	}, nil
}

func (a *Assigner) Assign(records []*domain.StudentRecord) (*Result, error) {
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		if seen[rec.UID] {
			return nil, fmt.Errorf("学生 UID %d 在本次运行中重复", rec.UID)
		}
		seen[rec.UID] = true
	}

	normal, special := separateSpecial(records, a.subjects)

	// 全部都是特殊学生时没有可分班的对象，直接原样返回
	if len(normal) == 0 {
		return &Result{
			Normal:       []*domain.StudentRecord{},
			Special:      special,
			ClassSizes:   []int{},
			MetricRanges: map[string]float64{},
		}, nil
	}

	students := buildStudents(normal, a.subjects)
	rankStudents(students, a.subjects, a.params.TieBreakSubject)

	n := len(students)

	// 班额必须按剔除特殊学生之后的实际人数计算
	var classSizes []int
	switch {
	case a.params.BigClassCount+a.params.SmallClassCount > 0:
		classSizes = planClassSizes(n, a.params.BigClassCount, a.params.SmallClassCount, a.params.SmallClassSize)
	case len(a.params.ClassSizes) > 0:
		classSizes = fitExplicitSizes(a.params.ClassSizes, n)
	default:
		classSizes = []int{n}
	}
	nClasses := len(classSizes)

	// 锁定排名靠前的尖子生，保证他们经过蛇形分配后的均匀分布不被优化破坏
	topCount := int(float64(n) * a.params.TopTierRatio)
	for _, s := range students[:topCount] {
		s.locked = true
	}

	bestScore := 0.0
	var bestAssignment map[int64]int // uid -> 班级下标
	var bestRanges []float64

	for round := 0; round < a.params.Rounds; round++ {
		roundStudents := students
		if round > 0 {
			// 后续轮次在固定大小的区块内打乱未锁定学生的顺序，给蛇形分配一个不同的起点
			roundStudents = a.perturb(students, nClasses)
		}

		assignment := snakeAssign(n, classSizes)
		tracker := newBalanceTracker(roundStudents, assignment, nClasses)
		score := a.optimize(roundStudents, assignment, nClasses, tracker)

		if bestAssignment == nil || score < bestScore {
			bestScore = score
			bestRanges = tracker.metricRanges()
			bestAssignment = make(map[int64]int, n)
			for i, s := range roundStudents {
				bestAssignment[s.record.UID] = assignment[i]
			}
		}
	}

	// 按 UID 把最优轮次的分班结果写回原始学生记录
	// 考号可能重复，绝不能用考号做这一步的映射
	result := &Result{
		Normal:       make([]*domain.StudentRecord, n),
		Special:      special,
		ClassSizes:   classSizes,
		BalanceScore: bestScore,
		MetricRanges: make(map[string]float64, len(a.subjects)+1),
	}
	for i, s := range students {
		s.record.NewClass = domain.ClassLabel(bestAssignment[s.record.UID])
		result.Normal[i] = s.record
	}

	result.MetricRanges["总分"] = bestRanges[0]
	for j, subject := range a.subjects {
		result.MetricRanges[subject] = bestRanges[j+1]
	}

	if err := utils.ValidateAssignmentSizes(result.Normal, classSizes); err != nil {
		return nil, err
	}

	return result, nil
}

// perturb 返回一个区块内打乱顺序后的学生切片，原切片保持不变
// 锁定学生所在的位置不参与打乱，这样他们的名次位置在每一轮中都保持不变
func (a *Assigner) perturb(students []*student, nClasses int) []*student {
	n := len(students)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	blockSize := max(nClasses*2, 6)

	for start := 0; start < n; start += blockSize {
		end := min(start+blockSize, n)

		var unlocked []int
		for i := start; i < end; i++ {
			if !students[i].locked {
				unlocked = append(unlocked, i)
			}
		}
		if len(unlocked) < 2 {
			continue
		}

		values := make([]int, len(unlocked))
		copy(values, unlocked)
		a.rng.Shuffle(len(values), func(i, j int) {
			values[i], values[j] = values[j], values[i]
		})
		for k, pos := range unlocked {
			order[pos] = values[k]
		}
	}

	perturbed := make([]*student, n)
	for i, idx := range order {
		perturbed[i] = students[idx]
	}
	return perturbed
}
