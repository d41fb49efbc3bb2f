package utils

import (
	"strings"

	"github.com/mozillazg/go-pinyin"
)

var gradeChineseMap = map[string]string{
	"1": "一", "2": "二", "3": "三", "4": "四", "5": "五", "6": "六",
	"7": "七", "8": "八", "9": "九",
}

// GradeNumberToChinese 把阿拉伯数字的年级转换成中文，如 "3" -> "三"
func GradeNumberToChinese(grade string) string {
	if chinese, ok := gradeChineseMap[grade]; ok {
		return chinese
	}
	return grade
}

// ASCIIFileName 把含有中文的文件名转换为纯 ASCII 的拼音形式
// 用于 Content-Disposition 中给不支持 RFC 5987 的旧客户端的兜底文件名
func ASCIIFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < 128 {
			sb.WriteRune(r)
			continue
		}
		converted := pinyin.LazyConvert(string(r), nil)
		if len(converted) > 0 {
			sb.WriteString(converted[0])
		}
		// 既不是 ASCII 也没有拼音的字符直接丢弃
	}
	return sb.String()
}
