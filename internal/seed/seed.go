package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/utils"
)

var subjects = []string{"语文", "数学", "英语", "科学"}

// 各科目的满分，用来生成比较接近真实分布的成绩
var subjectFullScores = map[string]float64{
	"语文": 100,
	"数学": 100,
	"英语": 100,
	"科学": 100,
}

type Options struct {
	Grades           int // 年级数量
	ClassesPerGrade  int // 每个年级的班级数量
	StudentsPerClass int // 每个班级的学生数量
	SpecialPerGrade  int // 每个年级中全科为 0 的特殊学生数量
}

// GenerateWorkbooks 生成示例成绩表，每个班级一个文件，文件名形如 "3.2.xlsx"
func GenerateWorkbooks(dir string, opts Options, rng *rand.Rand) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for grade := 1; grade <= opts.Grades; grade++ {
		specialLeft := opts.SpecialPerGrade

		for class := 1; class <= opts.ClassesPerGrade; class++ {
			fileName := fmt.Sprintf("%d.%d.xlsx", grade, class)
			path := filepath.Join(dir, fileName)

			if err := generateClassWorkbook(path, grade, class, opts.StudentsPerClass, &specialLeft, rng); err != nil {
				return err
			}
			slog.Info("已生成示例成绩表", "path", path)
		}
	}

	return nil
}

func generateClassWorkbook(path string, grade, class, students int, specialLeft *int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headers := append([]string{"考号", "姓名"}, subjects...)
	for c, header := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i := 0; i < students; i++ {
		row := i + 2
		examNumber := fmt.Sprintf("%d%02d%03d", grade, class, i+1)
		name := utils.GenerateRandomChineseName(rng)

		values := []any{examNumber, name}
		if *specialLeft > 0 {
			// 特殊学生：全科为 0，分班时应该被剔除
			*specialLeft--
			for range subjects {
				values = append(values, 0)
			}
		} else {
			for _, subject := range subjects {
				values = append(values, randomScore(subjectFullScores[subject], rng))
			}
		}

		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// randomScore 生成一个以满分的 75% 为中心的近似正态分布的成绩
func randomScore(fullScore float64, rng *rand.Rand) float64 {
	score := fullScore*0.75 + rng.NormFloat64()*fullScore*0.12
	if score < 0 {
		score = 0
	}
	if score > fullScore {
		score = fullScore
	}
	// 保留一位小数
	return float64(int(score*10)) / 10
}
