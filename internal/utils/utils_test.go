package utils

import (
	"math/rand"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

func TestValidateAssignmentSizes(t *testing.T) {
	records := []*domain.StudentRecord{
		{Name: "甲", ExamNumber: "001", NewClass: "1班"},
		{Name: "乙", ExamNumber: "002", NewClass: "1班"},
		{Name: "丙", ExamNumber: "003", NewClass: "2班"},
	}

	require.NoError(t, ValidateAssignmentSizes(records, []int{2, 1}))

	// 人数与目标班额不一致
	require.Error(t, ValidateAssignmentSizes(records, []int{1, 2}))

	// 有学生没有被分配班级
	records[2].NewClass = ""
	require.Error(t, ValidateAssignmentSizes(records, []int{2, 1}))

	// 出现目标班额之外的班级
	records[2].NewClass = "3班"
	require.Error(t, ValidateAssignmentSizes(records, []int{2, 1}))
}

func TestGradeNumberToChinese(t *testing.T) {
	require.Equal(t, "一", GradeNumberToChinese("1"))
	require.Equal(t, "三", GradeNumberToChinese("3"))
	require.Equal(t, "九", GradeNumberToChinese("9"))
	// 无法识别的年级原样返回
	require.Equal(t, "初三", GradeNumberToChinese("初三"))
}

func TestASCIIFileName(t *testing.T) {
	require.Equal(t, "sannianjifenbanjieguo.xlsx", ASCIIFileName("三年级分班结果.xlsx"))
	require.Equal(t, "report.xlsx", ASCIIFileName("report.xlsx"))
	require.Equal(t, "ban1.xlsx", ASCIIFileName("班1.xlsx"))
}

func TestGenerateRandomChineseName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		name := GenerateRandomChineseName(rng)
		length := utf8.RuneCountInString(name)
		require.GreaterOrEqual(t, length, 2)
		require.LessOrEqual(t, length, 3)
	}
}
