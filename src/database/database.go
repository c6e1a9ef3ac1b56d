package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/walletfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Open opens the sqlite database at databasePath and ensures the schema.
// The connection pool is capped at a single connection: sqlite allows one
// writer at a time, and a single connection makes every transaction fully
// serialized (no lost balance updates between concurrent read-modify-writes).
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	migrateWalletTable(db)
	return db, nil
}

// InitDB opens the database into the package-level DB handle.
// Call once at startup, after config and logger are initialized.
func InitDB(databasePath string) {
	db, err := Open(databasePath)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to open database", "databasePath", databasePath, "error", err)
		}
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	DB = db
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	}
}

func createTables(db *sql.DB) error {
	// user_id columns hold the owner ID issued by the external auth layer;
	// there is no local users table to reference.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		is_saving_account BOOLEAN NOT NULL DEFAULT FALSE,
		saving_account_goal TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		wallet_id TEXT NOT NULL,
		to_wallet_id TEXT,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		category_id TEXT,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE,
		from_wallet_id TEXT NOT NULL,
		to_wallet_id TEXT NOT NULL,
		amount_sent TEXT NOT NULL,
		amount_received TEXT NOT NULL,
		exchange_rate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY(transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS exchange_rate_snapshots (
		base_currency TEXT PRIMARY KEY,
		rates TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_wallet ON transactions(user_id, wallet_id);
	CREATE INDEX IF NOT EXISTS idx_transfers_transaction ON transfers(transaction_id);
	`
	_, err := db.Exec(createTableStatement)
	return err
}

// migrateWalletTable adds the saving-account columns to wallet tables created
// before goals existed. Errors here are logged, not fatal: a fresh schema
// already has the columns.
func migrateWalletTable(db *sql.DB) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='wallets'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'wallets' table", "error", err)
		}
		return
	}

	rows, err := db.Query("PRAGMA table_info(wallets)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'wallets'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'wallets'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'wallets'", "error", err)
		}
		return
	}

	if _, ok := columnExists["is_saving_account"]; !ok {
		if _, err := db.Exec("ALTER TABLE wallets ADD COLUMN is_saving_account BOOLEAN NOT NULL DEFAULT FALSE"); err != nil {
			logger.L.Error("Error adding 'is_saving_account' column to 'wallets' table", "error", err)
		} else {
			logger.L.Info("Added 'is_saving_account' column to 'wallets' table")
		}
	}
	if _, ok := columnExists["saving_account_goal"]; !ok {
		if _, err := db.Exec("ALTER TABLE wallets ADD COLUMN saving_account_goal TEXT NOT NULL DEFAULT '0'"); err != nil {
			logger.L.Error("Error adding 'saving_account_goal' column to 'wallets' table", "error", err)
		} else {
			logger.L.Info("Added 'saving_account_goal' column to 'wallets' table")
		}
	}
}
