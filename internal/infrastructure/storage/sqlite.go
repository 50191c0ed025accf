package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

// ErrAccountNotFound учётная запись с таким логином отсутствует
var ErrAccountNotFound = errors.New("account not found")

const schema = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	password TEXT NOT NULL DEFAULT '',
	need_password INTEGER NOT NULL DEFAULT 0,
	is_admin INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ocrlog (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account TEXT NOT NULL,
	time DATETIME NOT NULL,
	source TEXT NOT NULL,
	ocr_result TEXT NOT NULL DEFAULT '',
	ok INTEGER NOT NULL DEFAULT 0,
	image TEXT NOT NULL DEFAULT '',
	manual INTEGER NOT NULL DEFAULT 0,
	judgment INTEGER NOT NULL DEFAULT 0,
	keyin_result TEXT NOT NULL DEFAULT '',
	processor TEXT NOT NULL DEFAULT '',
	is_exterior_ok INTEGER NOT NULL DEFAULT 1,
	exterior_class INTEGER NOT NULL DEFAULT 0,
	exterior_err_reason INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ocrlog_time ON ocrlog(time);
CREATE INDEX IF NOT EXISTS idx_ocrlog_account ON ocrlog(account);
`

// SQLiteStore хранилище учётных записей и журнала проверок
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ port.AccountStore = (*SQLiteStore)(nil)
	_ port.LogStore     = (*SQLiteStore)(nil)
)

// Open открывает базу и создаёт недостающие таблицы.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Lookup возвращает учётную запись по логину.
func (s *SQLiteStore) Lookup(ctx context.Context, accountID string) (*entity.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, password, need_password, is_admin FROM account WHERE id = ?`, accountID)

	var a entity.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Password, &a.NeedPassword, &a.IsAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return &a, nil
}

// PutAccount добавляет или обновляет учётную запись.
func (s *SQLiteStore) PutAccount(ctx context.Context, a *entity.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (id, name, password, need_password, is_admin)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   password = excluded.password,
		   need_password = excluded.need_password,
		   is_admin = excluded.is_admin`,
		a.ID, a.Name, a.Password, a.NeedPassword, a.IsAdmin)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// Append добавляет запись журнала и возвращает её идентификатор.
func (s *SQLiteStore) Append(ctx context.Context, rec *entity.LogRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ocrlog (
		   account, time, source, ocr_result, ok, image, manual, judgment,
		   keyin_result, processor, is_exterior_ok, exterior_class, exterior_err_reason
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Account, rec.Time, rec.Source, rec.OCRResult, rec.OK, rec.Image,
		rec.Manual, rec.Judgment, rec.KeyInResult, rec.Processor,
		rec.IsExteriorOK, rec.ExteriorClass, rec.ExteriorErrReason)
	if err != nil {
		return 0, fmt.Errorf("append log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append log: %w", err)
	}
	return id, nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
