package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	// clientFoundRows=true -> RowsAffected reports matched rows, which the
	// capacity ledger's conditional updates rely on
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the classes and bookings tables when they do not
// exist yet.  Localized fields are stored as JSON documents so a
// single column carries every locale.  Bookings deliberately carry no
// foreign key to classes: a class with only cancelled bookings may be
// deleted while its booking rows stay behind as the audit trail, each
// holding its own title snapshot.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			title         JSON NOT NULL,
			description   JSON NOT NULL,
			instructor    JSON NOT NULL,
			languages     JSON NOT NULL,
			starts_at     DATETIME NOT NULL,
			duration      VARCHAR(64) NOT NULL DEFAULT '',
			price         DECIMAL(10,2) NOT NULL,
			capacity      INT NOT NULL,
			booked        INT NOT NULL DEFAULT 0,
			audience_type VARCHAR(32) NOT NULL DEFAULT 'mixed',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			CONSTRAINT chk_classes_booked CHECK (booked >= 0 AND booked <= capacity)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			class_id         BIGINT UNSIGNED NOT NULL,
			class_title      JSON NOT NULL,
			customer_name    VARCHAR(255) NOT NULL,
			email            VARCHAR(255) NOT NULL,
			phone            VARCHAR(64) NOT NULL DEFAULT '',
			participants     INT NOT NULL,
			payment_mode     VARCHAR(16) NOT NULL DEFAULT 'full',
			total_price      DECIMAL(10,2) NOT NULL,
			paid_amount      DECIMAL(10,2) NOT NULL,
			remaining_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			status           VARCHAR(16) NOT NULL DEFAULT 'confirmed',
			payment_ref      VARCHAR(255) NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_bookings_email (email),
			KEY idx_bookings_class (class_id, status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
