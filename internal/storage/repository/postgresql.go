// Package repository реализует хранилище учетных записей на основе PostgreSQL.
//
// Все операции чтения явно фильтруют записи по флагу active: мягко
// удаленный пользователь для любого запроса не существует. Хеширование
// пароля в пакет не входит — хранилище принимает и отдает только готовые
// хэши, преобразованием занимается бизнес-слой.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища.
var (
	// ErrUserNotFound — нет активной записи, удовлетворяющей условию поиска.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken — нарушение уникальности email среди активных записей.
	ErrEmailTaken = errors.New("email already taken")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// translateError приводит ошибки драйвера к ошибкам уровня хранилища.
func translateError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	return fmt.Errorf("%s: %w", op, err)
}
