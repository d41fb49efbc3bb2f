package assigner

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// parseScore 将原始成绩转换为数值，缺考、请假等非数字内容返回 false
func parseScore(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isSpecial 判断一名学生是否为特殊学生（不参与分班）
// 当且仅当所有科目的成绩都缺失、非数字或为 0 时成立
func isSpecial(rec *domain.StudentRecord, subjects []string) bool {
	for _, subject := range subjects {
		if v, ok := parseScore(rec.Scores[subject]); ok && v != 0 {
			return false
		}
	}
	return true
}

// separateSpecial 将特殊学生从总体中分离出来
func separateSpecial(records []*domain.StudentRecord, subjects []string) (normal, special []*domain.StudentRecord) {
	normal = make([]*domain.StudentRecord, 0, len(records))
	for _, rec := range records {
		if isSpecial(rec, subjects) {
			special = append(special, rec)
		} else {
			normal = append(normal, rec)
		}
	}
	return normal, special
}

// buildStudents 把正常学生转换为内部表示，并计算总分和综合分
// 综合分为各科 Z 分数的均值，这样各科目无论满分多少都以相同的权重参与排名
func buildStudents(records []*domain.StudentRecord, subjects []string) []*student {
	students := make([]*student, len(records))
	for i, rec := range records {
		values := make([]float64, len(subjects))
		total := 0.0
		for j, subject := range subjects {
			v, ok := parseScore(rec.Scores[subject])
			if !ok {
				v = 0
			}
			values[j] = v
			total += v
		}

		metrics := make([]float64, 0, len(subjects)+1)
		metrics = append(metrics, total)
		metrics = append(metrics, values...)

		students[i] = &student{
			record:  rec,
			values:  values,
			metrics: metrics,
		}
		rec.Total = total
	}

	// 每个科目先计算样本均值和标准差，再计算每名学生的 Z 分数
	n := float64(len(students))
	for j := range subjects {
		mean := 0.0
		for _, s := range students {
			mean += s.values[j]
		}
		mean /= n

		std := 0.0
		if len(students) > 1 {
			for _, s := range students {
				std += (s.values[j] - mean) * (s.values[j] - mean)
			}
			std = math.Sqrt(std / (n - 1))
		}

		for _, s := range students {
			z := 0.0
			if std > 0 {
				// 标准差为 0 说明该科目所有人同分，Z 分数统一按 0 处理
				z = (s.values[j] - mean) / std
			}
			s.record.Composite += z / float64(len(subjects))
		}
	}

	return students
}

// rankStudents 按综合分从高到低排序并赋予年级排名
// 并列时依次比较总分、指定科目成绩、考号和内部 UID，保证排序结果唯一确定
func rankStudents(students []*student, subjects []string, tieBreakSubject string) {
	tieBreakIdx := -1
	for j, subject := range subjects {
		if subject == tieBreakSubject {
			tieBreakIdx = j
			break
		}
	}

	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.record.Composite != b.record.Composite {
			return a.record.Composite > b.record.Composite
		}
		if a.record.Total != b.record.Total {
			return a.record.Total > b.record.Total
		}
		if tieBreakIdx >= 0 && a.values[tieBreakIdx] != b.values[tieBreakIdx] {
			return a.values[tieBreakIdx] > b.values[tieBreakIdx]
		}
		if a.record.ExamNumber != b.record.ExamNumber {
			return a.record.ExamNumber < b.record.ExamNumber
		}
		return a.record.UID < b.record.UID
	})

	for i, s := range students {
		s.record.Rank = i + 1
	}
}
