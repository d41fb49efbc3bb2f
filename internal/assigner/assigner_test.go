package assigner

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// gradeRecords 构造 n 名单科学生，成绩从 n 分到 1 分依次递减
func gradeRecords(n int) []*domain.StudentRecord {
	records := make([]*domain.StudentRecord, n)
	for i := 0; i < n; i++ {
		records[i] = newRecord(int64(i+1), fmt.Sprintf("%03d", i+1), map[string]string{
			"语文": fmt.Sprintf("%d", n-i),
		})
	}
	return records
}

func classCounts(records []*domain.StudentRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.NewClass]++
	}
	return counts
}

func TestNewValidatesParameters(t *testing.T) {
	_, err := New(&Parameters{}, nil)
	require.Error(t, err)

	_, err = New(&Parameters{BigClassCount: -1}, []string{"语文"})
	require.Error(t, err)

	_, err = New(&Parameters{TopTierRatio: 1.5}, []string{"语文"})
	require.Error(t, err)

	_, err = New(&Parameters{ClassSizes: []int{10, 0}}, []string{"语文"})
	require.Error(t, err)

	a, err := New(&Parameters{BigClassCount: 2}, []string{"语文"})
	require.NoError(t, err)
	require.Equal(t, defaultRounds, a.params.Rounds)
	require.Equal(t, defaultMaxIterations, a.params.MaxIterations)
	require.Equal(t, defaultMaxNoImprovement, a.params.MaxNoImprovement)
}

func TestAssignRejectsDuplicateUID(t *testing.T) {
	a, err := New(&Parameters{BigClassCount: 2, Rand: rand.New(rand.NewSource(1))}, []string{"语文"})
	require.NoError(t, err)

	records := []*domain.StudentRecord{
		newRecord(1, "001", map[string]string{"语文": "90"}),
		newRecord(1, "002", map[string]string{"语文": "80"}),
	}
	_, err = a.Assign(records)
	require.Error(t, err)
}

func TestAssignExcludesSpecialStudents(t *testing.T) {
	records := gradeRecords(7)
	for i := 7; i < 10; i++ {
		records = append(records, newRecord(int64(i+1), fmt.Sprintf("%03d", i+1), map[string]string{
			"语文": "0",
		}))
	}

	a, err := New(&Parameters{
		BigClassCount: 2,
		Rounds:        2,
		Rand:          rand.New(rand.NewSource(3)),
	}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(records)
	require.NoError(t, err)
	require.Len(t, res.Normal, 7)
	require.Len(t, res.Special, 3)
	require.Equal(t, []int{4, 3}, res.ClassSizes)

	counts := classCounts(res.Normal)
	require.Equal(t, 4, counts["1班"])
	require.Equal(t, 3, counts["2班"])

	// 特殊学生不会被分配新班级
	for _, rec := range res.Special {
		require.Empty(t, rec.NewClass)
	}
}

func TestAssignAllSpecial(t *testing.T) {
	records := []*domain.StudentRecord{
		newRecord(1, "001", map[string]string{"语文": "0"}),
		newRecord(2, "002", map[string]string{"语文": "缺考"}),
	}

	a, err := New(&Parameters{BigClassCount: 2, Rand: rand.New(rand.NewSource(1))}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(records)
	require.NoError(t, err)
	require.Empty(t, res.Normal)
	require.Len(t, res.Special, 2)
	require.Empty(t, res.ClassSizes)
}

func TestAssignSingleClass(t *testing.T) {
	a, err := New(&Parameters{BigClassCount: 1, Rounds: 1, Rand: rand.New(rand.NewSource(1))}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(gradeRecords(5))
	require.NoError(t, err)
	require.Equal(t, []int{5}, res.ClassSizes)
	for _, rec := range res.Normal {
		require.Equal(t, "1班", rec.NewClass)
	}
}

func TestAssignLockedTopTierFollowsSnake(t *testing.T) {
	// 锁定比例为 1 时没有任何交换发生，结果就是纯蛇形分配
	a, err := New(&Parameters{
		BigClassCount: 2,
		TopTierRatio:  1.0,
		Rounds:        3,
		Rand:          rand.New(rand.NewSource(5)),
	}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(gradeRecords(8))
	require.NoError(t, err)

	want := []string{"1班", "2班", "2班", "1班", "1班", "2班", "2班", "1班"}
	for i, rec := range res.Normal {
		require.Equal(t, i+1, rec.Rank)
		require.Equal(t, want[i], rec.NewClass)
	}
}

func TestAssignBalancesTwoEqualClasses(t *testing.T) {
	a, err := New(&Parameters{
		BigClassCount: 2,
		Rounds:        3,
		Rand:          rand.New(rand.NewSource(11)),
	}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(gradeRecords(40))
	require.NoError(t, err)
	require.Equal(t, []int{20, 20}, res.ClassSizes)

	// 1..40 分交错分到两个班后均值完全一致
	require.InDelta(t, 0.0, res.BalanceScore, 1e-9)
	require.InDelta(t, 0.0, res.MetricRanges["总分"], 1e-9)
	require.InDelta(t, 0.0, res.MetricRanges["语文"], 1e-9)
}

func TestAssignMoreRoundsNeverWorse(t *testing.T) {
	run := func(rounds int) float64 {
		a, err := New(&Parameters{
			BigClassCount: 3,
			Rounds:        rounds,
			MaxIterations: 300,
			TopTierRatio:  0.15,
			Rand:          rand.New(rand.NewSource(21)),
		}, []string{"语文"})
		require.NoError(t, err)

		res, err := a.Assign(gradeRecords(31))
		require.NoError(t, err)
		return res.BalanceScore
	}

	// 第一轮消耗的随机数序列相同，后续轮次只可能找到更优解
	require.LessOrEqual(t, run(6), run(1))
}

func TestAssignReproducibleWithSeed(t *testing.T) {
	run := func() map[string]string {
		a, err := New(&Parameters{
			BigClassCount: 3,
			Rounds:        4,
			MaxIterations: 500,
			Rand:          rand.New(rand.NewSource(99)),
		}, []string{"语文"})
		require.NoError(t, err)

		res, err := a.Assign(gradeRecords(25))
		require.NoError(t, err)

		classes := make(map[string]string, len(res.Normal))
		for _, rec := range res.Normal {
			classes[rec.ExamNumber] = rec.NewClass
		}
		return classes
	}

	require.Equal(t, run(), run())
}

func TestAssignDuplicateExamNumbers(t *testing.T) {
	// 考号可以重复，分班按内部 UID 区分学生
	records := []*domain.StudentRecord{
		newRecord(1, "001", map[string]string{"语文": "90"}),
		newRecord(2, "001", map[string]string{"语文": "80"}),
		newRecord(3, "002", map[string]string{"语文": "70"}),
		newRecord(4, "003", map[string]string{"语文": "60"}),
	}

	a, err := New(&Parameters{BigClassCount: 2, Rounds: 2, Rand: rand.New(rand.NewSource(2))}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(records)
	require.NoError(t, err)
	require.Len(t, res.Normal, 4)

	counts := classCounts(res.Normal)
	require.Equal(t, 2, counts["1班"])
	require.Equal(t, 2, counts["2班"])
}

func TestAssignExplicitClassSizes(t *testing.T) {
	a, err := New(&Parameters{
		ClassSizes: []int{10, 10, 5},
		Rounds:     2,
		Rand:       rand.New(rand.NewSource(4)),
	}, []string{"语文"})
	require.NoError(t, err)

	res, err := a.Assign(gradeRecords(25))
	require.NoError(t, err)
	require.Equal(t, []int{10, 10, 5}, res.ClassSizes)

	counts := classCounts(res.Normal)
	require.Equal(t, 10, counts["1班"])
	require.Equal(t, 10, counts["2班"])
	require.Equal(t, 5, counts["3班"])
}
