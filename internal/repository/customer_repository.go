package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/streamtv/internal/model"
)

// CustomerRepo reads and writes the customer table.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

// UsernameExists reports whether any customer already uses username.
func (r *CustomerRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM customer WHERE username=?)",
		username).Scan(&exists)
	return exists, err
}

// LatestID returns the customer identifier with the numerically largest
// suffix, or "" when the table is empty.  Ordering is numeric so that
// legacy identifiers of different widths compare correctly.
func (r *CustomerRepo) LatestID(ctx context.Context) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		"SELECT custID FROM customer ORDER BY CAST(SUBSTRING(custID, 5) AS UNSIGNED) DESC, custID DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// Insert stores a new customer.  Duplicate usernames map to
// ErrUsernameTaken and duplicate identifiers to ErrCustomerIDTaken.
func (r *CustomerRepo) Insert(ctx context.Context, c model.Customer) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO customer
			(username, password, fname, lname, email, creditcard, custID, membersince, renewaldate)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		c.Username, c.PasswordHash, c.FirstName, c.LastName, c.Email, c.CreditCard, c.ID,
		dateOnly(c.MemberSince), dateOnly(c.RenewalDate))
	if err != nil {
		return classifyDuplicate(err)
	}
	return nil
}

// CredentialsByUsername returns every row matching username.  The caller
// decides what to do with zero or several matches.
func (r *CustomerRepo) CredentialsByUsername(ctx context.Context, username string) ([]model.Credentials, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT custID, password FROM customer WHERE username=?",
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Credentials
	for rows.Next() {
		var c model.Credentials
		if err := rows.Scan(&c.CustomerID, &c.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a customer by identifier.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		`SELECT custID, username, password, fname, lname, email, creditcard, membersince, renewaldate
		 FROM customer WHERE custID=? LIMIT 1`,
		id).Scan(&c.ID, &c.Username, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Email, &c.CreditCard,
		&c.MemberSince, &c.RenewalDate)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// dateOnly formats t as a DATE literal in t's own location so the stored
// calendar day matches the caller's notion of "today".
func dateOnly(t time.Time) string { return t.Format(time.DateOnly) }
