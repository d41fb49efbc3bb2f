package parser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

// GradeRoster 是一个年级合并后的学生名单
// Subjects 保持各成绩表中科目列首次出现的顺序
type GradeRoster struct {
	Grade    string
	Subjects []string
	Students []*domain.StudentRecord
}

var (
	idPatterns    = []string{"考号", "学号", "编号", "id", "序号"}
	namePatterns  = []string{"姓名", "名字", "学生姓名", "name"}
	knownSubjects = []string{
		"语文", "数学", "英语", "科学", "道法", "品德", "体育", "音乐", "美术",
		"物理", "化学", "生物", "历史", "地理", "政治",
	}
	gradeNamePairs = [][2]string{
		{"一", "1"}, {"二", "2"}, {"三", "3"}, {"四", "4"}, {"五", "5"}, {"六", "6"},
		{"1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}, {"5", "5"}, {"6", "6"},
	}
)

// columnKind 表示表头识别的结果
type columnKind int

const (
	columnIgnored columnKind = iota
	columnExamNumber
	columnName
	columnSubject
)

type column struct {
	kind columnKind
	name string // 科目列的标准化名称
}

// parsedFile 是单个成绩表文件的解析结果
type parsedFile struct {
	grade       string
	originClass string
	subjects    []string
	students    []*domain.StudentRecord
}

// ParseUploadDir 解析上传目录中的所有成绩表并按年级合并
// 目录既可以直接包含成绩表文件，也可以包含以年级命名的子目录
func ParseUploadDir(dir string) (map[string]*GradeRoster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []*parsedFile

	for _, entry := range entries {
		if !entry.IsDir() {
			if pf := parseFileLogged(filepath.Join(dir, entry.Name()), ""); pf != nil {
				files = append(files, pf)
			}
			continue
		}

		// 子目录名作为年级提示，如 "三年级" 或 "3"
		gradeHint := entry.Name()
		subEntries, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, sub := range subEntries {
			if sub.IsDir() {
				continue
			}
			if pf := parseFileLogged(filepath.Join(dir, entry.Name(), sub.Name()), gradeHint); pf != nil {
				files = append(files, pf)
			}
		}
	}

	rosters := make(map[string]*GradeRoster)
	var uid int64

	for _, pf := range files {
		roster, exists := rosters[pf.grade]
		if !exists {
			roster = &GradeRoster{Grade: pf.grade}
			rosters[pf.grade] = roster
		}
		for _, subject := range pf.subjects {
			if !slices.Contains(roster.Subjects, subject) {
				roster.Subjects = append(roster.Subjects, subject)
			}
		}
		for _, student := range pf.students {
			student.UID = uid
			uid++
			roster.Students = append(roster.Students, student)
		}
	}

	return rosters, nil
}

func parseFileLogged(path, gradeHint string) *parsedFile {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" {
		return nil
	}

	pf, err := parseFile(path, gradeHint)
	if err != nil {
		// 单个文件解析失败不影响其他文件，与上传目录中可能混入的无关文件兼容
		slog.Warn("成绩表解析失败，已跳过", "path", path, "error", err)
		return nil
	}
	return pf
}

func parseFile(path, gradeHint string) (*parsedFile, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("工作簿中没有工作表")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("工作表中没有数据行")
	}

	columns := detectColumns(rows)

	examIdx, nameIdx := -1, -1
	for i, col := range columns {
		switch col.kind {
		case columnExamNumber:
			if examIdx < 0 {
				examIdx = i
			}
		case columnName:
			if nameIdx < 0 {
				nameIdx = i
			}
		}
	}
	if examIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("无法识别考号列或姓名列")
	}

	grade, originClass := gradeFromFileName(path, gradeHint)

	pf := &parsedFile{
		grade:       grade,
		originClass: originClass,
	}
	for _, col := range columns {
		if col.kind == columnSubject {
			pf.subjects = append(pf.subjects, col.name)
		}
	}

	for _, row := range rows[1:] {
		examNumber := strings.TrimSpace(cellAt(row, examIdx))
		name := strings.TrimSpace(cellAt(row, nameIdx))
		if examNumber == "" && name == "" {
			continue
		}

		scores := make(map[string]string, len(pf.subjects))
		for i, col := range columns {
			if col.kind == columnSubject {
				scores[col.name] = strings.TrimSpace(cellAt(row, i))
			}
		}

		pf.students = append(pf.students, &domain.StudentRecord{
			ExamNumber:  examNumber,
			Name:        name,
			Grade:       grade,
			OriginClass: originClass,
			Scores:      scores,
		})
	}

	if len(pf.students) == 0 {
		return nil, fmt.Errorf("工作表中没有有效的学生记录")
	}

	return pf, nil
}

// detectColumns 自动识别表头：考号列、姓名列和科目列
// 没有命中已知列名的表头，如果该列的数据以数字为主，也会被当作科目列
func detectColumns(rows [][]string) []column {
	headers := rows[0]
	columns := make([]column, len(headers))

	for i, header := range headers {
		header = strings.ToLower(strings.TrimSpace(header))

		switch {
		case matchAny(header, idPatterns):
			columns[i] = column{kind: columnExamNumber}
		case matchAny(header, namePatterns):
			columns[i] = column{kind: columnName}
		case matchAny(header, knownSubjects):
			for _, subject := range knownSubjects {
				if strings.Contains(header, subject) {
					columns[i] = column{kind: columnSubject, name: subject}
					break
				}
			}
		case header == "":
			// 表头为空时根据列的位置和数据内容推断
			columns[i] = guessUnnamedColumn(rows, i)
		default:
			if mostlyNumeric(rows, i) && !matchAny(header, []string{"id", "号", "班", "级", "名"}) {
				columns[i] = column{kind: columnSubject, name: strings.TrimSpace(headers[i])}
			}
		}
	}

	return columns
}

func guessUnnamedColumn(rows [][]string, idx int) column {
	switch idx {
	case 0:
		if mostlyNumeric(rows, idx) {
			return column{kind: columnExamNumber}
		}
	case 1:
		if containsChinese(rows, idx) {
			return column{kind: columnName}
		}
	default:
		if mostlyNumeric(rows, idx) {
			return column{kind: columnSubject, name: fmt.Sprintf("科目%d", idx-1)}
		}
	}
	return column{kind: columnIgnored}
}

// mostlyNumeric 判断某一列的非空数据是否超过一半可以解析为数字
func mostlyNumeric(rows [][]string, idx int) bool {
	numeric, nonEmpty := 0, 0
	for _, row := range rows[1:] {
		cell := strings.TrimSpace(cellAt(row, idx))
		if cell == "" {
			continue
		}
		nonEmpty++
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			numeric++
		}
	}
	return nonEmpty > 0 && numeric*2 > nonEmpty
}

func containsChinese(rows [][]string, idx int) bool {
	for _, row := range rows[1:] {
		for _, r := range cellAt(row, idx) {
			if unicode.Is(unicode.Han, r) {
				return true
			}
		}
	}
	return false
}

// gradeFromFileName 从文件名解析年级和原班级
// 文件名形如 "3.2.xlsx" 表示 3 年级 2 班；不符合这种格式时使用目录名提示
func gradeFromFileName(path, gradeHint string) (grade, originClass string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, ".")
	if len(parts) >= 2 {
		return parts[0], fmt.Sprintf("%s年级%s班", parts[0], parts[1])
	}

	grade = "unknown"
	for _, pair := range gradeNamePairs {
		if strings.Contains(gradeHint, pair[0]) {
			grade = pair[1]
			break
		}
	}
	return grade, stem
}

func matchAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
