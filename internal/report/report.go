package report

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// Generate 生成一个年级的分班结果工作簿：
// 每个新班级一个工作表（按排名排序，底部附班级统计），一个全年级的统计汇总表，
// 特殊学生（如果有）单独放在一个工作表中原样输出
// 返回生成的文件名（不含路径）
func Generate(students, special []*domain.StudentRecord, subjects []string, classCount int, outputDir, gradeName string) (string, error) {
	fileName := fmt.Sprintf("%s年级分班结果.xlsx", gradeName)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}
	centerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", err
	}

	headers := append([]string{"姓名", "原班级", "总分"}, subjects...)
	headers = append(headers, "年级排名")

	// 全年级平均分，写在每个班级统计的旁边方便对照
	gradeTotalAvg := averageTotal(students)
	gradeSubjectAvg := make(map[string]float64, len(subjects))
	for _, subject := range subjects {
		gradeSubjectAvg[subject] = averageSubject(students, subject)
	}

	byClass := make(map[string][]*domain.StudentRecord)
	for _, s := range students {
		byClass[s.NewClass] = append(byClass[s.NewClass], s)
	}

	for ci := 0; ci < classCount; ci++ {
		label := domain.ClassLabel(ci)
		classStudents := byClass[label]
		sort.Slice(classStudents, func(i, j int) bool {
			return classStudents[i].Rank < classStudents[j].Rank
		})

		if _, err := f.NewSheet(label); err != nil {
			return "", err
		}

		writeHeaderRow(f, label, headers, headerStyle)

		for r, s := range classStudents {
			row := r + 2
			values := []any{s.Name, s.OriginClass, s.Total}
			for _, subject := range subjects {
				values = append(values, s.Scores[subject])
			}
			values = append(values, s.Rank)
			writeRow(f, label, row, values, centerStyle)
		}

		// 班级统计
		statsRow := len(classStudents) + 4
		setCell(f, label, 1, statsRow, "班级统计", boldStyle)
		setCell(f, label, 1, statsRow+1, "总分平均", 0)
		setCell(f, label, 2, statsRow+1, round2(averageTotal(classStudents)), 0)
		setCell(f, label, 3, statsRow+1, fmt.Sprintf("(年级平均: %.2f)", gradeTotalAvg), 0)
		for i, subject := range subjects {
			setCell(f, label, 1, statsRow+2+i, subject+"平均", 0)
			setCell(f, label, 2, statsRow+2+i, round2(averageSubject(classStudents, subject)), 0)
			setCell(f, label, 3, statsRow+2+i, fmt.Sprintf("(年级平均: %.2f)", gradeSubjectAvg[subject]), 0)
		}

		if err := setColumnWidths(f, label, len(headers)); err != nil {
			return "", err
		}
	}

	// 统计汇总表
	const summarySheet = "统计汇总"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return "", err
	}

	summaryHeaders := []string{"班级", "人数", "总分平均"}
	for _, subject := range subjects {
		summaryHeaders = append(summaryHeaders, subject+"平均")
	}
	writeHeaderRow(f, summarySheet, summaryHeaders, headerStyle)

	for ci := 0; ci < classCount; ci++ {
		label := domain.ClassLabel(ci)
		classStudents := byClass[label]
		values := []any{label, len(classStudents), round2(averageTotal(classStudents))}
		for _, subject := range subjects {
			values = append(values, round2(averageSubject(classStudents, subject)))
		}
		writeRow(f, summarySheet, ci+2, values, centerStyle)
	}

	gradeRow := classCount + 2
	setCell(f, summarySheet, 1, gradeRow, "年级平均", boldStyle)
	setCell(f, summarySheet, 2, gradeRow, len(students), 0)
	setCell(f, summarySheet, 3, gradeRow, round2(gradeTotalAvg), 0)
	for i, subject := range subjects {
		setCell(f, summarySheet, 4+i, gradeRow, round2(gradeSubjectAvg[subject]), 0)
	}
	if err := setColumnWidths(f, summarySheet, len(summaryHeaders)); err != nil {
		return "", err
	}

	// 特殊学生原样输出，不参与任何统计
	if len(special) > 0 {
		const specialSheet = "特殊学生"
		if _, err := f.NewSheet(specialSheet); err != nil {
			return "", err
		}
		specialHeaders := append([]string{"考号", "姓名", "原班级"}, subjects...)
		writeHeaderRow(f, specialSheet, specialHeaders, headerStyle)
		for r, s := range special {
			values := []any{s.ExamNumber, s.Name, s.OriginClass}
			for _, subject := range subjects {
				values = append(values, s.Scores[subject])
			}
			writeRow(f, specialSheet, r+2, values, centerStyle)
		}
		if err := setColumnWidths(f, specialSheet, len(specialHeaders)); err != nil {
			return "", err
		}
	}

	// 删除 excelize 默认创建的工作表
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}

	if err := f.SaveAs(filepath.Join(outputDir, fileName)); err != nil {
		return "", err
	}

	return fileName, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) {
	for c, header := range headers {
		setCell(f, sheet, c+1, 1, header, style)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) {
	for c, v := range values {
		setCell(f, sheet, c+1, row, v, style)
	}
}

func setCell(f *excelize.File, sheet string, col, row int, value any, style int) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, value)
	if style != 0 {
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setColumnWidths(f *excelize.File, sheet string, columns int) error {
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 12)
}

func averageTotal(students []*domain.StudentRecord) float64 {
	if len(students) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range students {
		sum += s.Total
	}
	return sum / float64(len(students))
}

func averageSubject(students []*domain.StudentRecord, subject string) float64 {
	if len(students) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range students {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s.Scores[subject]), 64); err == nil {
			sum += v
		}
	}
	return sum / float64(len(students))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
