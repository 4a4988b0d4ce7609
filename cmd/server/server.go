package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sync"
	"time"

	"schema-matcher/internal/adapter"
	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/renderer"
	"schema-matcher/internal/schema"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	taskTimeout   = 10 * time.Minute
	pushInterval  = 500 * time.Millisecond
	defaultSample = 1000
)

// 任务状态
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// DBSource 在线数据库来源
type DBSource struct {
	DBType     string `json:"db_type"` // mysql/sqlserver/postgres
	Conn       string `json:"conn"`
	Schema     string `json:"schema"`
	Name       string `json:"name"`
	SampleSize int    `json:"sample_size"`
}

// MatchRequest 匹配请求；每一侧给出内联模式或数据库来源之一
type MatchRequest struct {
	Source      *schema.Schema       `json:"source,omitempty"`
	Target      *schema.Schema       `json:"target,omitempty"`
	SourceDB    *DBSource            `json:"source_db,omitempty"`
	TargetDB    *DBSource            `json:"target_db,omitempty"`
	Params      map[string]string    `json:"params,omitempty"`
	GroundTruth evaluate.GroundTruth `json:"ground_truth,omitempty"`
	TopN        int                  `json:"top_n,omitempty"`
}

// MatchResult 匹配结果
type MatchResult struct {
	Matrix  renderer.MatrixDocument  `json:"matrix"`
	Matches []renderer.ColumnMatches `json:"matches"`
	Report  string                   `json:"report"`
	Stats   *flooding.Result         `json:"stats"`
	Metrics *evaluate.Metrics        `json:"metrics,omitempty"`
}

// MatchTask 匹配任务
type MatchTask struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Progress  int          `json:"progress"` // 0-100
	Message   string       `json:"message"`
	Iteration int          `json:"iteration"`
	Residual  float64      `json:"residual"`
	Result    *MatchResult `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	request MatchRequest
	params  config.Parameters
}

func (t *MatchTask) done() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

type server struct {
	defaults config.Parameters
	log      *logger.Logger

	mu    sync.RWMutex
	tasks map[string]*MatchTask
}

func newServer(defaults config.Parameters, log *logger.Logger) *server {
	if log == nil {
		log = logger.Nop()
	}
	return &server{defaults: defaults, log: log, tasks: make(map[string]*MatchTask)}
}

func (s *server) register(mux *http.ServeMux) {
	mux.HandleFunc("/api/match", s.handleMatch)
	mux.HandleFunc("/api/task/", s.handleTaskStatus)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	mux.HandleFunc("/api/parameters", s.handleParameters)
}

// handleMatch 创建匹配任务并异步执行
func (s *server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.ErrKindInvalidInput, "decode request", err))
		return
	}
	params, err := s.validate(req)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	task := &MatchTask{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Message:   "任务已创建，等待执行...",
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
		params:    params,
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	go s.run(task)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"status":  StatusPending,
	})
}

// validate 在入队前检查参数和内联模式
func (s *server) validate(req MatchRequest) (config.Parameters, error) {
	params := s.defaults
	if err := params.Set(req.Params); err != nil {
		return params, err
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	for _, side := range []struct {
		name   string
		inline *schema.Schema
		db     *DBSource
	}{
		{"source", req.Source, req.SourceDB},
		{"target", req.Target, req.TargetDB},
	} {
		switch {
		case side.inline != nil:
			if err := side.inline.Validate(); err != nil {
				return params, err
			}
		case side.db == nil:
			return params, errs.Newf(errs.ErrKindInvalidInput, "%s schema is required", side.name)
		case side.db.Conn == "":
			return params, errs.Newf(errs.ErrKindInvalidInput, "%s_db.conn is required", side.name)
		}
	}
	return params, nil
}

// handleTaskStatus 查询任务状态
func (s *server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.snapshot(path.Base(r.URL.Path))
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleWebSocket 持续推送任务状态，任务结束后关闭
func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if _, ok := s.snapshot(taskID); !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.ErrorWith("websocket upgrade failed", err, nil)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		task, ok := s.snapshot(taskID)
		if !ok {
			return
		}
		if err := conn.WriteJSON(task); err != nil {
			return
		}
		if task.done() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, task.Status))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// handleParameters 返回默认参数和可选取值
func (s *server) handleParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_params":  s.defaults.Get(),
		"possible_values": config.PossibleValues(),
		"max_iterations":  s.defaults.MaxIterations,
		"epsilon":         s.defaults.Epsilon,
	})
}

// snapshot 返回任务的副本，避免与执行中的任务竞争
func (s *server) snapshot(id string) (MatchTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return MatchTask{}, false
	}
	return *task, true
}

func (s *server) update(task *MatchTask, fn func(t *MatchTask)) {
	s.mu.Lock()
	fn(task)
	task.UpdatedAt = time.Now()
	s.mu.Unlock()
}

func (s *server) progress(task *MatchTask, status string, progress int, message string) {
	s.update(task, func(t *MatchTask) {
		t.Status = status
		t.Progress = progress
		t.Message = message
	})
}

// run 执行匹配
func (s *server) run(task *MatchTask) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	log := s.log.With().Str("task_id", task.ID).Logger()
	ctx = log.WithContext(ctx)
	req := task.request

	s.progress(task, StatusRunning, 5, "读取模式...")
	source, err := loadSide(ctx, req.Source, req.SourceDB, "source")
	if err != nil {
		s.fail(task, log, "读取源模式失败", err)
		return
	}
	target, err := loadSide(ctx, req.Target, req.TargetDB, "target")
	if err != nil {
		s.fail(task, log, "读取目标模式失败", err)
		return
	}

	s.progress(task, StatusRunning, 20, fmt.Sprintf("相似度泛洪：%d × %d 列...", source.TotalColumns(), target.TotalColumns()))

	maxIterations := task.params.MaxIterations
	observer := func(iteration int, residual float64) {
		s.update(task, func(t *MatchTask) {
			t.Iteration = iteration
			t.Residual = residual
			t.Progress = 20 + 70*iteration/maxIterations
		})
	}

	m := flooding.NewMatrix(source, target)
	res, err := flooding.Match(source, target, m, task.params, flooding.WithLogger(log), flooding.WithObserver(observer))
	if err != nil {
		s.fail(task, log, "匹配失败", err)
		return
	}

	s.progress(task, StatusRunning, 95, "生成输出...")

	var metrics *evaluate.Metrics
	if len(req.GroundTruth) > 0 {
		score := evaluate.Score(m, source, target, req.GroundTruth)
		metrics = &score
	}
	topN := req.TopN
	if topN <= 0 {
		topN = renderer.DefaultTopN
	}
	result := &MatchResult{
		Matrix:  renderer.NewMatrixDocument(source, target, m, res),
		Matches: renderer.TopMatches(m, source, target, topN),
		Report: renderer.NewMarkdownRenderer().Render(renderer.MatchReport{
			Source:  source,
			Target:  target,
			Matrix:  m,
			Result:  res,
			Params:  task.params,
			Metrics: metrics,
			TopN:    topN,
		}),
		Stats:   res,
		Metrics: metrics,
	}

	s.update(task, func(t *MatchTask) {
		t.Result = result
		t.Status = StatusCompleted
		t.Progress = 100
		t.Message = "匹配完成！"
	})
	log.InfoWith("match task completed", map[string]interface{}{
		"iterations":  res.Stats.Iterations,
		"converged":   res.Stats.Converged,
		"fingerprint": result.Matrix.Fingerprint,
	})
}

func (s *server) fail(task *MatchTask, log *logger.Logger, message string, err error) {
	log.ErrorWith("match task failed", err, nil)
	s.update(task, func(t *MatchTask) {
		t.Status = StatusFailed
		t.Message = fmt.Sprintf("%s: %v", message, err)
	})
}

func loadSide(ctx context.Context, inline *schema.Schema, db *DBSource, side string) (*schema.Schema, error) {
	if inline != nil {
		return inline, nil
	}
	a, err := adapter.Open(ctx, db.DBType, db.Conn, db.Schema)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	name := db.Name
	if name == "" {
		name = db.Schema
	}
	if name == "" {
		name = side
	}
	sample := db.SampleSize
	if sample == 0 {
		sample = defaultSample
	}
	return adapter.LoadSchema(ctx, a, name, sample)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError 按错误种类映射 HTTP 状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsConnectionFailed(err):
		status = http.StatusBadGateway
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
