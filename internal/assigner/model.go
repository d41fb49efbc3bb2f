package assigner

import (
	"math/rand"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// student: 参与分班的学生在引擎内部的表示
type student struct {
	record  *domain.StudentRecord
	values  []float64 // 与 subjects 一一对应的数值成绩，非数字按 0 处理
	metrics []float64 // metrics[0] 为总分，其余依次为各科目成绩
	locked  bool      // 锁定的尖子生不参与交换
}

// 分班参数
type Parameters struct {
	BigClassCount    int        // 大班数量
	SmallClassCount  int        // 小班数量
	SmallClassSize   int        // 小班的名义班额
	ClassSizes       []int      // 显式班额，仅当大小班数量均为 0 时生效
	TopTierRatio     float64    // 锁定的尖子生比例（按排名从前往后）
	Rounds           int        // 独立重启轮数
	MaxIterations    int        // 每轮优化的最大交换次数
	MaxNoImprovement int        // 连续无改进多少次后提前停止
	TieBreakSubject  string     // 排名并列时优先比较的科目（如 语文），可以为空
	Rand             *rand.Rand // 随机数来源，传入固定种子可以让结果可复现
}

// Result 是一次分班运行的完整结果
// Normal 中的每个学生都已经带有新班级、排名、综合分和总分，并按排名排序
type Result struct {
	Normal       []*domain.StudentRecord
	Special      []*domain.StudentRecord // 不参与分班的特殊学生，原样返回
	ClassSizes   []int
	BalanceScore float64
	MetricRanges map[string]float64 // 指标 -> 班级平均分极差
}

const (
	defaultRounds           = 8
	defaultMaxIterations    = 5000
	defaultMaxNoImprovement = 500

	// 每次交换以多大概率针对最不均衡的指标选择班级，其余情况随机选择
	targetedSwapProbability = 0.75
)
