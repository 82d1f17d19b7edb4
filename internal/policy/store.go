package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/config"
	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/vector"
)

var (
	// ErrStoreUnavailable 存储文件或连接无法打开
	ErrStoreUnavailable = errors.New("policy store unavailable")
	// ErrIntegrity 标量行与向量行写入数量不一致
	ErrIntegrity = errors.New("policy store integrity violation")
	// ErrInvalidIdentifier 策略ID无法转换为存储的整数主键
	ErrInvalidIdentifier = errors.New("invalid policy identifier")
)

func init() {
	// 为进程内所有新连接注册sqlite-vec扩展
	sqlitevec.Auto()
}

// SearchResult 一次近邻查询命中的情景行，距离越小越相似
type SearchResult struct {
	ID                   int64   `json:"id"`
	Distance             float64 `json:"distance"`
	FullPolicyText       string  `json:"full_policy_text"`
	SituationDescription string  `json:"situation_description"`
}

// Store 策略库，一个sqlite文件承载situations标量表和vec_situations向量索引。
// 连接按逻辑操作获取并在所有退出路径上关闭，不做连接池。
type Store struct {
	cfg config.StoreConfig
}

// NewStore 创建策略库访问层
func NewStore(cfg config.StoreConfig) *Store {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	return &Store{cfg: cfg}
}

// open 获取一个连接，调用方必须关闭。create为false时要求存储文件已存在。
func (s *Store) open(ctx context.Context, create bool) (*sql.DB, error) {
	if !create {
		if _, err := os.Stat(s.cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: store file not found at %s", ErrStoreUnavailable, s.cfg.Path)
		}
	}
	db, err := sql.Open("sqlite3", s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return db, nil
}

// EnsureSchema 建表，幂等。只有入库流程调用，检索路径假定schema已就绪。
func (s *Store) EnsureSchema(ctx context.Context) error {
	if dir := filepath.Dir(s.cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := s.open(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS situations (
			id INTEGER PRIMARY KEY,
			full_policy_text TEXT,
			situation_description TEXT
		)`); err != nil {
		return fmt.Errorf("%w: create situations: %v", ErrStoreUnavailable, err)
	}

	stmt := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_situations USING vec0(
			id INTEGER PRIMARY KEY,
			situation_embedding FLOAT[%d]
		)`, s.cfg.Dimension)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: create vec_situations: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// InsertPolicy 在一个事务里按序写入情景行和对应向量行，id完全同步。
// 部分写入不可见：任一行失败时整个文档回滚。
func (s *Store) InsertPolicy(ctx context.Context, fullPolicyText string, descriptions []string, embeddings [][]float32) error {
	if len(descriptions) != len(embeddings) {
		return fmt.Errorf("%w: %d descriptions but %d embeddings",
			ErrIntegrity, len(descriptions), len(embeddings))
	}
	if len(descriptions) == 0 {
		return fmt.Errorf("%w: no situations for policy", ErrIntegrity)
	}

	db, err := s.open(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	for i, desc := range descriptions {
		if err := vector.CheckDimension(embeddings[i], s.cfg.Dimension); err != nil {
			return fmt.Errorf("%w: situation %d: %v", ErrIntegrity, i, err)
		}
		blob, err := vector.Serialize(embeddings[i])
		if err != nil {
			return fmt.Errorf("%w: situation %d: %v", ErrIntegrity, i, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO situations(full_policy_text, situation_description) VALUES(?, ?)`,
			fullPolicyText, desc)
		if err != nil {
			return fmt.Errorf("%w: insert situation: %v", ErrStoreUnavailable, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: last insert id: %v", ErrStoreUnavailable, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_situations(id, situation_embedding) VALUES(?, ?)`,
			id, blob); err != nil {
			return fmt.Errorf("%w: insert vector row %d: %v", ErrStoreUnavailable, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// KNNSearch 返回查询向量的k个最近情景行，按距离升序，并联标量表取回全文。
// 标量行缺失的命中返回空full_policy_text，由调用方过滤。
func (s *Store) KNNSearch(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if err := vector.CheckDimension(query, s.cfg.Dimension); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	blob, err := vector.Serialize(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if k <= 0 {
		k = s.cfg.DefaultK
	}

	db, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT
			vec_situations.id,
			distance,
			full_policy_text,
			situation_description
		FROM vec_situations
		LEFT JOIN situations ON situations.id = vec_situations.id
		WHERE situation_embedding MATCH ?
			AND k = ?
		ORDER BY distance`,
		blob, k)
	if err != nil {
		return nil, fmt.Errorf("%w: knn query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var text, desc sql.NullString
		if err := rows.Scan(&r.ID, &r.Distance, &text, &desc); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		r.FullPolicyText = text.String
		r.SituationDescription = desc.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	logger.Debug("knn search complete", zap.Int("rows", len(results)), zap.Int("k", k))
	return results, nil
}

// FullPolicyTexts 按ID批量取回策略全文，未知ID静默忽略
func (s *Store) FullPolicyTexts(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT full_policy_text FROM situations WHERE id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch texts: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		texts = append(texts, text.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return texts, nil
}

// HasPolicyText 检查某个策略全文是否已经入库，用于断点续传式跳过
func (s *Store) HasPolicyText(ctx context.Context, fullPolicyText string) (bool, error) {
	db, err := s.open(ctx, true)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx,
		`SELECT 1 FROM situations WHERE full_policy_text = ? LIMIT 1`,
		fullPolicyText).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}
