package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// backupTables lists the catalog tables in dependency order.
var backupTables = []string{"movies", "vendors", "purchases", "prices"}

// BackupPath is where a backup for runDate lands inside dir.
func BackupPath(dir string, runDate time.Time) string {
	return filepath.Join(dir, "movies_db_backup_"+runDate.Format(time.DateOnly))
}

// Backup exports every catalog table as CSV into a dated directory below dir
// and returns that directory. A second backup on the same date overwrites the first.
func (s *Store) Backup(ctx context.Context, dir string, runDate time.Time) (string, error) {
	target := BackupPath(dir, runDate)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for _, table := range backupTables {
		path := filepath.Join(target, table+".csv")
		if err := s.copyTable(ctx, conn.Conn().PgConn(), table, path); err != nil {
			return "", err
		}
	}

	s.logger.WithField("path", target).Info("store: backup written")
	return target, nil
}

func (s *Store) copyTable(ctx context.Context, conn *pgconn.PgConn, table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	tag, err := conn.CopyTo(ctx, f, fmt.Sprintf("COPY %s TO STDOUT WITH (FORMAT csv, HEADER true)", table))
	if err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", table, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{"table": table, "rows": tag.RowsAffected()}).Debug("store: table exported")
	return nil
}
