package utils

import (
	"fmt"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// ValidateAssignmentSizes 检查分班结果是否满足约束条件：
// 每名学生都被分到了某个班级，且每个班级的人数和目标班额完全一致
func ValidateAssignmentSizes(records []*domain.StudentRecord, classSizes []int) error {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.NewClass == "" {
			return fmt.Errorf("学生 %s（考号 %s）没有被分配到任何班级", rec.Name, rec.ExamNumber)
		}
		counts[rec.NewClass]++
	}

	for i, size := range classSizes {
		label := domain.ClassLabel(i)
		if counts[label] != size {
			return fmt.Errorf("%s 的人数 %d 与目标班额 %d 不一致", label, counts[label], size)
		}
		delete(counts, label)
	}

	for label := range counts {
		return fmt.Errorf("存在目标班额之外的班级 %s", label)
	}

	return nil
}
