package seed

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/assigner"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/parser"
)

func TestGenerateWorkbooks(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))

	opts := Options{
		Grades:           2,
		ClassesPerGrade:  3,
		StudentsPerClass: 10,
		SpecialPerGrade:  2,
	}
	require.NoError(t, GenerateWorkbooks(dir, opts, rng))

	// 生成的成绩表必须可以被解析流程完整读回
	rosters, err := parser.ParseUploadDir(dir)
	require.NoError(t, err)
	require.Len(t, rosters, 2)

	for _, roster := range rosters {
		require.Equal(t, subjects, roster.Subjects)
		require.Len(t, roster.Students, 30)
	}
}

func TestGeneratedWorkbooksAssignable(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(7))

	opts := Options{
		Grades:           1,
		ClassesPerGrade:  2,
		StudentsPerClass: 15,
		SpecialPerGrade:  3,
	}
	require.NoError(t, GenerateWorkbooks(dir, opts, rng))

	rosters, err := parser.ParseUploadDir(dir)
	require.NoError(t, err)

	roster := rosters["1"]
	require.NotNil(t, roster)

	a, err := assigner.New(&assigner.Parameters{
		BigClassCount: 2,
		Rounds:        2,
		Rand:          rng,
	}, roster.Subjects)
	require.NoError(t, err)

	res, err := a.Assign(roster.Students)
	require.NoError(t, err)
	require.Len(t, res.Special, 3)
	require.Len(t, res.Normal, 27)
}

func TestRandomScore(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		score := randomScore(100, rng)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 100.0)
	}
}
