package tuning

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/logger"
)

// maxLine 单条消息的最大长度
const maxLine = 1 << 20

// Hello 连接建立后发送的第一条消息
type Hello struct {
	Score          float64             `json:"score"`
	CurrentParams  map[string]string   `json:"current_params"`
	PossibleValues map[string][]string `json:"possible_values"`
}

// Reply 每个参数快照的应答
type Reply struct {
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// Session 一次调参会话，持有当前参数
type Session struct {
	scorer *Scorer
	params config.Parameters
	log    *logger.Logger
}

// NewSession 创建会话
func NewSession(scorer *Scorer, params config.Parameters, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{scorer: scorer, params: params, log: log}
}

// Params 当前生效的参数
func (s *Session) Params() config.Parameters {
	return s.params
}

// Serve 在 rw 上运行协议直到对端关闭
//
// 先发送 Hello；之后每读到一行参数快照就应用并回复新的得分。非法快照回复 error，
// 参数保持不变。
func (s *Session) Serve(ctx context.Context, rw io.ReadWriter) error {
	enc := json.NewEncoder(rw)

	score, err := s.scorer.Score(ctx, s.params)
	if err != nil {
		return err
	}
	hello := Hello{Score: score, CurrentParams: s.params.Get(), PossibleValues: config.PossibleValues()}
	if err := enc.Encode(hello); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "send initial score", err)
	}
	s.log.InfoWith("tuning session started", map[string]interface{}{"score": score})

	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.ErrKindTimeout, "tuning session cancelled", err)
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		reply := s.handle(ctx, line)
		if err := enc.Encode(reply); err != nil {
			return errs.Wrap(errs.ErrKindConnectionFailed, "send score", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "read parameters", err)
	}

	s.log.Info("tuning session closed")
	return nil
}

func (s *Session) handle(ctx context.Context, line []byte) Reply {
	values, err := decodeSnapshot(line)
	if err != nil {
		return s.fail(err)
	}

	next := s.params
	if err := next.Set(values); err != nil {
		return s.fail(err)
	}
	score, err := s.scorer.Score(ctx, next)
	if err != nil {
		return s.fail(err)
	}

	s.params = next
	s.log.InfoWith("parameters scored", map[string]interface{}{
		config.KeyPolicy:  next.Policy,
		config.KeyFormula: next.Formula,
		"score":           score,
	})
	return Reply{Score: score}
}

func (s *Session) fail(err error) Reply {
	s.log.ErrorWith("parameters rejected", err, nil)
	return Reply{Score: 0, Error: err.Error()}
}

// decodeSnapshot 解析参数快照；数字按最短形式转为字符串，null 视为空串
func decodeSnapshot(line []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode parameter snapshot", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			values[k] = ""
		case string:
			values[k] = x
		case float64:
			values[k] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return nil, errs.Newf(errs.ErrKindInvalidInput, "parameter %s: unsupported value %v", k, v)
		}
	}
	return values, nil
}

// Run 连接调参服务并运行会话
func Run(ctx context.Context, addr string, session *Session) error {
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, fmt.Sprintf("dial tuner %s", addr), err)
	}
	defer conn.Close()

	session.log.InfoWith("connected to tuner", map[string]interface{}{"addr": addr})
	return session.Serve(ctx, conn)
}
