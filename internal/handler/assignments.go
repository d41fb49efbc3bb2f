package handler

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/assigner"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/parser"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/report"
	"github.com/bhzhangCST/Auto-Class-Assigner/internal/utils"
)

// Upload 接收上传的成绩表并完成整个处理流程：
// 解析 -> 按年级分班 -> 生成结果工作簿 -> 登记会话 -> 返回各年级的分班摘要
// 各年级之间相互独立，并发处理
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		h.badRequest(w, r, err)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.errorResponse(w, r, "未上传任何文件")
		return
	}

	req := struct {
		BigClassCount   int     `validate:"min=0"`
		SmallClassCount int     `validate:"min=0"`
		SmallClassSize  int     `validate:"min=0"`
		TopTierRatio    float64 `validate:"min=0,max=1"`
		Rounds          int     `validate:"min=0,max=64"`
		NotifyEmail     string  `validate:"omitempty,email"`
	}{
		TopTierRatio: h.config.Assigner.TopTierRatio,
		Rounds:       h.config.Assigner.Rounds,
		NotifyEmail:  strings.TrimSpace(r.FormValue("notifyEmail")),
	}

	var err error
	if req.BigClassCount, err = formInt(r, "bigClassCount", 0); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.SmallClassCount, err = formInt(r, "smallClassCount", 0); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.SmallClassSize, err = formInt(r, "smallClassSize", 30); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.TopTierRatio, err = formFloat(r, "topTierRatio", req.TopTierRatio); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Rounds, err = formInt(r, "rounds", req.Rounds); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sessionID := uuid.New().String()
	sessionUploadDir := filepath.Join(h.config.Storage.UploadDir, sessionID)
	sessionOutputDir := filepath.Join(h.config.Storage.OutputDir, sessionID)

	if err := os.MkdirAll(sessionUploadDir, 0o755); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := os.MkdirAll(sessionOutputDir, 0o755); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	// 上传的原始文件在处理结束后就不再需要了
	defer os.RemoveAll(sessionUploadDir)

	for _, fh := range files {
		if err := saveUploadedFile(fh, sessionUploadDir); err != nil {
			os.RemoveAll(sessionOutputDir)
			h.internalServerError(w, r, err)
			return
		}
	}

	rosters, err := parser.ParseUploadDir(sessionUploadDir)
	if err != nil {
		os.RemoveAll(sessionOutputDir)
		h.internalServerError(w, r, err)
		return
	}
	if len(rosters) == 0 {
		os.RemoveAll(sessionOutputDir)
		h.errorResponse(w, r, "未找到有效的成绩文件")
		return
	}

	var (
		mu        sync.Mutex
		summaries []*domain.AssignmentSummary
	)

	// 各年级相互独立，可以安全地并发分班
	g := new(errgroup.Group)
	for _, roster := range rosters {
		roster := roster
		g.Go(func() error {
			if len(roster.Subjects) == 0 {
				return nil
			}

			params := &assigner.Parameters{
				BigClassCount:    req.BigClassCount,
				SmallClassCount:  req.SmallClassCount,
				SmallClassSize:   req.SmallClassSize,
				TopTierRatio:     req.TopTierRatio,
				Rounds:           req.Rounds,
				MaxIterations:    h.config.Assigner.MaxIterations,
				MaxNoImprovement: h.config.Assigner.MaxNoImprovement,
				TieBreakSubject:  h.config.Assigner.TieBreakSubject,
			}
			if params.BigClassCount+params.SmallClassCount == 0 {
				// 不指定大小班配置时保持原有的班级数量
				params.BigClassCount = max(countOriginClasses(roster.Students), 1)
			}

			a, err := assigner.New(params, roster.Subjects)
			if err != nil {
				return err
			}
			res, err := a.Assign(roster.Students)
			if err != nil {
				return err
			}

			gradeName := utils.GradeNumberToChinese(roster.Grade)
			fileName, err := report.Generate(res.Normal, res.Special, roster.Subjects, len(res.ClassSizes), sessionOutputDir, gradeName)
			if err != nil {
				return err
			}

			if err := h.repository.InsertAssignmentRecord(&domain.AssignmentRecord{
				SessionID:    sessionID,
				Grade:        gradeName,
				StudentCount: len(res.Normal),
				SpecialCount: len(res.Special),
				ClassCount:   len(res.ClassSizes),
				BalanceScore: res.BalanceScore,
			}); err != nil {
				return err
			}

			mu.Lock()
			summaries = append(summaries, &domain.AssignmentSummary{
				Grade:        gradeName,
				StudentCount: len(res.Normal),
				SpecialCount: len(res.Special),
				ClassSizes:   res.ClassSizes,
				BalanceScore: res.BalanceScore,
				MetricRanges: res.MetricRanges,
				ResultFile:   fileName,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		os.RemoveAll(sessionOutputDir)
		h.internalServerError(w, r, err)
		return
	}

	if len(summaries) == 0 {
		os.RemoveAll(sessionOutputDir)
		h.errorResponse(w, r, "成绩表中没有可识别的科目列")
		return
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Grade < summaries[j].Grade })

	// 会话连同结果文件列表存入 redis，并设置过期时间
	session := &domain.Session{
		ID:        sessionID,
		CreatedAt: time.Now(),
	}
	totalStudents := 0
	for _, summary := range summaries {
		session.Files = append(session.Files, summary.ResultFile)
		totalStudents += summary.StudentCount
	}

	sessionData, err := json.Marshal(session)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, sessionKey(sessionID), sessionData, time.Duration(h.config.Storage.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 分班完成后按需发送通知邮件
	if req.NotifyEmail != "" {
		if err := h.publishAssignmentDoneMail(req.NotifyEmail, sessionID, len(summaries), totalStudents); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, fmt.Sprintf("成功处理 %d 个年级的分班", len(summaries)), map[string]any{
		"sessionID": sessionID,
		"results":   summaries,
	})
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	fileName := chi.URLParam(r, "filename")

	session, err := h.getSession(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			h.errorResponse(w, r, "会话不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if !slices.Contains(session.Files, fileName) {
		h.errorResponse(w, r, "文件不存在")
		return
	}

	path := filepath.Join(h.config.Storage.OutputDir, sessionID, fileName)
	if _, err := os.Stat(path); err != nil {
		h.errorResponse(w, r, "文件不存在")
		return
	}

	setDownloadHeaders(w, fileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (h *Handler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.getSession(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			h.errorResponse(w, r, "会话不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	sessionOutputDir := filepath.Join(h.config.Storage.OutputDir, sessionID)
	zipPath := filepath.Join(h.config.Storage.OutputDir, sessionID+".zip")

	if err := writeZipArchive(zipPath, sessionOutputDir, session.Files); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	setDownloadHeaders(w, "分班结果.zip", "application/zip")
	http.ServeFile(w, r, zipPath)
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	os.RemoveAll(filepath.Join(h.config.Storage.OutputDir, sessionID))
	os.Remove(filepath.Join(h.config.Storage.OutputDir, sessionID+".zip"))

	h.successResponse(w, r, "清理完成", nil)
}

func (h *Handler) GetAllAssignmentRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.repository.GetAllAssignmentRecords()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取分班记录成功", records)
}

func (h *Handler) GetAssignmentRecordByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("记录 ID 必须是整数"))
		return
	}

	record, err := h.repository.GetAssignmentRecordByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "分班记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取分班记录成功", record)
}

func (h *Handler) getSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (h *Handler) publishAssignmentDoneMail(to, sessionID string, gradeCount, studentCount int) error {
	mailData, err := json.Marshal(domain.MailMessage{
		Type: "assignment_done",
		To:   to,
		Data: domain.AssignmentDoneMailData{
			SessionID:    sessionID,
			GradeCount:   gradeCount,
			StudentCount: studentCount,
			Expiration:   h.config.Storage.Expiration / 60,
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}

func sessionKey(sessionID string) string {
	return "session_" + sessionID
}

// saveUploadedFile 把上传的文件保存到会话目录中
// 浏览器上传整个文件夹时文件名会带有相对路径，这里保留目录结构但拒绝越出会话目录的路径
func saveUploadedFile(fh *multipart.FileHeader, dir string) error {
	name := filepath.Clean(fh.Filename)
	if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("非法的文件名: %s", fh.Filename)
	}

	dst := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func writeZipArchive(zipPath, dir string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for _, name := range files {
		src, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		entry, err := zw.Create(name)
		if err != nil {
			src.Close()
			return err
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}

	return zw.Close()
}

func setDownloadHeaders(w http.ResponseWriter, fileName, contentType string) {
	// 旧客户端使用拼音形式的 ASCII 文件名，支持 RFC 5987 的客户端使用原始文件名
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		utils.ASCIIFileName(fileName), url.PathEscape(fileName)))
}

func countOriginClasses(students []*domain.StudentRecord) int {
	seen := make(map[string]bool)
	for _, s := range students {
		seen[s.OriginClass] = true
	}
	return len(seen)
}

func formInt(r *http.Request, key string, fallback int) (int, error) {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("参数 %s 必须是整数", key)
	}
	return v, nil
}

func formFloat(r *http.Request, key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("参数 %s 必须是数字", key)
	}
	return v, nil
}
