package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/streamtv/internal/model"
)

// QueueRepo manages cust_queue rows.  Rows are never updated or deleted and
// the same (customer, show) pair may appear several times.
type QueueRepo struct{ DB *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{DB: db} }

// Add appends a queue entry dated day.  An unknown show maps to
// ErrUnknownReference.
func (r *QueueRepo) Add(ctx context.Context, customerID, showID string, day time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO cust_queue (custID, showID, datequeued) VALUES (?,?,?)",
		customerID, showID, dateOnly(day))
	return classifyReference(err)
}

// ListByCustomer returns the customer's queue joined with show titles in
// storage order.
func (r *QueueRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.QueueEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT q.custID, s.showID, s.title, q.datequeued
		 FROM cust_queue q
		 JOIN shows s ON s.showID = q.showID
		 WHERE q.custID = ?`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.QueueEntry{}
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(&e.CustomerID, &e.ShowID, &e.ShowTitle, &e.DateQueued); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Exists reports whether the customer has queued the show at least once.
func (r *QueueRepo) Exists(ctx context.Context, customerID, showID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM cust_queue WHERE custID=? AND showID=?)",
		customerID, showID).Scan(&exists)
	return exists, err
}
