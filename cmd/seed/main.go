package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/seed"
)

func main() {
	var dir string
	var opts seed.Options
	var seedValue int64

	flag.StringVar(&dir, "dir", "./testdata", "生成的成绩表所在的目录")
	flag.IntVar(&opts.Grades, "grades", 1, "要生成的年级数量")
	flag.IntVar(&opts.ClassesPerGrade, "classes", 4, "每个年级的班级数量")
	flag.IntVar(&opts.StudentsPerClass, "students", 45, "每个班级的学生数量")
	flag.IntVar(&opts.SpecialPerGrade, "special", 2, "每个年级中全科为 0 的特殊学生数量")
	flag.Int64Var(&seedValue, "seed", 0, "随机种子，0 表示使用当前时间")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	if err := seed.GenerateWorkbooks(dir, opts, rng); err != nil {
		logger.Error("生成示例成绩表失败", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("示例成绩表生成完成", "dir", dir)
}
