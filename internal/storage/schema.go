package storage

import "fmt"

// dialect описывает различия DDL между движками: тип автоинкрементного
// первичного ключа, тип ссылки на него и тип денежных сумм. Все даты
// хранятся как RFC3339 в UTC текстом - такие строки сравниваются
// лексикографически одинаково в обоих движках.
type dialect struct {
	pk  string // автоинкрементный первичный ключ
	ref string // тип внешней ссылки на первичный ключ
	num string // тип денежной суммы
}

var (
	postgresDialect = dialect{pk: "BIGSERIAL PRIMARY KEY", ref: "BIGINT", num: "DOUBLE PRECISION"}
	sqliteDialect   = dialect{pk: "INTEGER PRIMARY KEY AUTOINCREMENT", ref: "INTEGER", num: "REAL"}
)

// schemaStatements возвращает DDL схемы для указанного движка.
// Индексы покрывают выборку наступивших правил и операций за период.
func schemaStatements(d dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			is_verified INTEGER NOT NULL DEFAULT 0,
			verification_token TEXT,
			created_at TEXT NOT NULL
		)`, d.pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS budgets (
			id %s,
			user_id %s NOT NULL REFERENCES users(id),
			category TEXT NOT NULL,
			limit_amount %s NOT NULL,
			created_at TEXT NOT NULL
		)`, d.pk, d.ref, d.num),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS goals (
			id %s,
			user_id %s NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			target_amount %s NOT NULL,
			current_amount %s NOT NULL DEFAULT 0,
			deadline TEXT,
			created_at TEXT NOT NULL
		)`, d.pk, d.ref, d.num, d.num),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS recurring_transactions (
			id %s,
			user_id %s NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			amount %s NOT NULL,
			category TEXT NOT NULL,
			frequency TEXT NOT NULL,
			last_processed TEXT NOT NULL,
			next_due TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`, d.pk, d.ref, d.num),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			id %s,
			user_id %s NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			amount %s NOT NULL,
			type TEXT NOT NULL,
			category TEXT NOT NULL,
			date TEXT NOT NULL
		)`, d.pk, d.ref, d.num),

		// Выборка наступивших правил идет по владельцу и сроку
		`CREATE INDEX IF NOT EXISTS idx_recurring_user_due ON recurring_transactions (user_id, next_due)`,
		// Аналитика и бюджеты читают операции владельца за период
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
	}
}
