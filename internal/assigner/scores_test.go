package assigner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

func newRecord(uid int64, examNumber string, scores map[string]string) *domain.StudentRecord {
	return &domain.StudentRecord{
		UID:        uid,
		ExamNumber: examNumber,
		Name:       "学生",
		Scores:     scores,
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		raw   string
		value float64
		ok    bool
	}{
		{"95.5", 95.5, true},
		{" 80 ", 80, true},
		{"0", 0, true},
		{"", 0, false},
		{"缺考", 0, false},
		{"请假", 0, false},
	}
	for _, c := range cases {
		v, ok := parseScore(c.raw)
		require.Equal(t, c.ok, ok, "raw=%q", c.raw)
		require.Equal(t, c.value, v, "raw=%q", c.raw)
	}
}

func TestIsSpecial(t *testing.T) {
	subjects := []string{"语文", "数学"}

	require.True(t, isSpecial(newRecord(1, "001", map[string]string{"语文": "0", "数学": "0"}), subjects))
	require.True(t, isSpecial(newRecord(2, "002", map[string]string{"语文": "缺考", "数学": ""}), subjects))
	require.True(t, isSpecial(newRecord(3, "003", map[string]string{}), subjects))
	require.False(t, isSpecial(newRecord(4, "004", map[string]string{"语文": "0", "数学": "60"}), subjects))
	require.False(t, isSpecial(newRecord(5, "005", map[string]string{"语文": "缺考", "数学": "1"}), subjects))
}

func TestSeparateSpecial(t *testing.T) {
	subjects := []string{"语文", "数学"}

	records := make([]*domain.StudentRecord, 0, 10)
	for i := 0; i < 7; i++ {
		records = append(records, newRecord(int64(i), "", map[string]string{"语文": "90", "数学": "85"}))
	}
	for i := 7; i < 10; i++ {
		records = append(records, newRecord(int64(i), "", map[string]string{"语文": "0", "数学": "0"}))
	}

	normal, special := separateSpecial(records, subjects)
	require.Len(t, normal, 7)
	require.Len(t, special, 3)

	// 班额按剔除后的 7 人计算
	sizes := planClassSizes(len(normal), 2, 0, 0)
	require.Equal(t, []int{4, 3}, sizes)
}

func TestBuildStudents(t *testing.T) {
	subjects := []string{"语文"}
	records := []*domain.StudentRecord{
		newRecord(1, "001", map[string]string{"语文": "1"}),
		newRecord(2, "002", map[string]string{"语文": "3"}),
	}

	students := buildStudents(records, subjects)
	require.Len(t, students, 2)

	require.Equal(t, 1.0, records[0].Total)
	require.Equal(t, 3.0, records[1].Total)

	// 均值 2，样本标准差 sqrt(2)，Z 分数为 ±1/sqrt(2)
	require.InDelta(t, -0.7071, records[0].Composite, 1e-4)
	require.InDelta(t, 0.7071, records[1].Composite, 1e-4)

	// metrics[0] 为总分
	require.Equal(t, []float64{1, 1}, students[0].metrics)
	require.Equal(t, []float64{3, 3}, students[1].metrics)
}

func TestBuildStudentsConstantSubject(t *testing.T) {
	subjects := []string{"语文", "数学"}
	records := []*domain.StudentRecord{
		newRecord(1, "001", map[string]string{"语文": "80", "数学": "70"}),
		newRecord(2, "002", map[string]string{"语文": "80", "数学": "90"}),
	}

	buildStudents(records, subjects)

	// 语文全员同分，该科目对综合分的贡献为 0
	require.InDelta(t, -0.3536, records[0].Composite, 1e-4)
	require.InDelta(t, 0.3536, records[1].Composite, 1e-4)
}

func TestBuildStudentsMissingScoreAsZero(t *testing.T) {
	subjects := []string{"语文", "数学"}
	rec := newRecord(1, "001", map[string]string{"语文": "90", "数学": "缺考"})

	students := buildStudents([]*domain.StudentRecord{rec}, subjects)
	require.Equal(t, 90.0, rec.Total)
	require.Equal(t, []float64{90, 0}, students[0].values)
	// 单人时标准差为 0，综合分按 0 处理
	require.Equal(t, 0.0, rec.Composite)
}

func TestRankStudents(t *testing.T) {
	subjects := []string{"语文", "数学"}
	records := []*domain.StudentRecord{
		newRecord(1, "003", map[string]string{"语文": "60", "数学": "60"}),
		newRecord(2, "001", map[string]string{"语文": "90", "数学": "90"}),
		newRecord(3, "002", map[string]string{"语文": "80", "数学": "70"}),
	}

	students := buildStudents(records, subjects)
	rankStudents(students, subjects, "语文")

	require.Equal(t, int64(2), students[0].record.UID)
	require.Equal(t, int64(3), students[1].record.UID)
	require.Equal(t, int64(1), students[2].record.UID)
	for i, s := range students {
		require.Equal(t, i+1, s.record.Rank)
	}
}

func TestRankStudentsTieBreak(t *testing.T) {
	subjects := []string{"语文", "数学"}

	// 两人总分和综合分完全相同，语文高者在前
	records := []*domain.StudentRecord{
		newRecord(1, "002", map[string]string{"语文": "70", "数学": "90"}),
		newRecord(2, "001", map[string]string{"语文": "90", "数学": "70"}),
	}
	students := buildStudents(records, subjects)
	rankStudents(students, subjects, "语文")
	require.Equal(t, int64(2), students[0].record.UID)

	// 成绩完全相同时按考号升序
	records = []*domain.StudentRecord{
		newRecord(1, "002", map[string]string{"语文": "80", "数学": "80"}),
		newRecord(2, "001", map[string]string{"语文": "80", "数学": "80"}),
	}
	students = buildStudents(records, subjects)
	rankStudents(students, subjects, "语文")
	require.Equal(t, "001", students[0].record.ExamNumber)
}
