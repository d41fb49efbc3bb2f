package domain

import "fmt"

// StudentRecord 表示一名学生在一次分班运行中的完整记录
// UID 是运行期内部分配的唯一标识，考号在不同原班级之间可能重复，因此不能作为主键
type StudentRecord struct {
	UID         int64             `json:"-"`
	ExamNumber  string            `json:"examNumber"`  // 考号
	Name        string            `json:"name"`        // 姓名
	Grade       string            `json:"grade"`       // 年级
	OriginClass string            `json:"originClass"` // 原班级
	Scores      map[string]string `json:"scores"`      // 科目 -> 原始成绩，可能为空或非数字
	Composite   float64           `json:"composite"`   // 综合分（各科 Z 分数的均值）
	Total       float64           `json:"total"`       // 总分
	Rank        int               `json:"rank"`        // 年级排名，从 1 开始
	NewClass    string            `json:"newClass"`    // 新班级
}

// ClassLabel 返回第 i 个班级（从 0 开始计数）的名称
func ClassLabel(i int) string {
	return fmt.Sprintf("%d班", i+1)
}
