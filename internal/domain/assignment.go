package domain

import "time"

// ClassSizePolicy 描述大小班配置
// 当大班数量和小班数量都为 0 时，表示不启用大小班，由调用方提供显式班额或默认单个班级
type ClassSizePolicy struct {
	BigClassCount   int `json:"bigClassCount"`   // 大班数量
	SmallClassCount int `json:"smallClassCount"` // 小班数量
	SmallClassSize  int `json:"smallClassSize"`  // 小班的名义班额
}

// AssignmentSummary 是一个年级分班完成后返回给客户端的摘要
type AssignmentSummary struct {
	Grade        string             `json:"grade"`
	StudentCount int                `json:"studentCount"` // 参与分班的学生数
	SpecialCount int                `json:"specialCount"` // 不参与分班的特殊学生数
	ClassSizes   []int              `json:"classSizes"`
	BalanceScore float64            `json:"balanceScore"` // 加权均衡分数，越小越均衡
	MetricRanges map[string]float64 `json:"metricRanges"` // 指标 -> 班级平均分极差
	ResultFile   string             `json:"resultFile"`
}

// AssignmentRecord 是持久化在数据库中的单次分班运行记录
type AssignmentRecord struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionID"`
	Grade        string    `json:"grade"`
	StudentCount int       `json:"studentCount"`
	SpecialCount int       `json:"specialCount"`
	ClassCount   int       `json:"classCount"`
	BalanceScore float64   `json:"balanceScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session 记录一次上传处理产生的输出文件，存储在 redis 中并带有过期时间
type Session struct {
	ID        string    `json:"id"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}
