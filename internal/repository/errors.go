// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// constraint conflicts apart from genuine storage failures.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned by single-row catalog lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when an insert violates the unique
// username key on the customer table.
var ErrUsernameTaken = errors.New("username already exists")

// ErrCustomerIDTaken is returned when another registration claimed the
// same customer identifier first.  Callers allocate a new identifier and
// retry.
var ErrCustomerIDTaken = errors.New("customer id already exists")

// ErrConflict is returned for any other duplicate-key violation.
var ErrConflict = errors.New("conflict")

// ErrUnknownReference is returned when a write names a row that does not
// exist, such as queuing an unknown show.
var ErrUnknownReference = errors.New("referenced row does not exist")

const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlNoReferenced   = 1452 // ER_NO_REFERENCED_ROW_2
)

// classifyDuplicate maps a MySQL duplicate-key error to a sentinel based on
// the name of the violated key.  Other errors are returned unchanged.
func classifyDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_customer_username"):
		return ErrUsernameTaken
	case strings.Contains(me.Message, "PRIMARY"):
		return ErrCustomerIDTaken
	default:
		return ErrConflict
	}
}

// classifyReference maps a MySQL foreign-key violation on insert to
// ErrUnknownReference.  Other errors are returned unchanged.
func classifyReference(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlNoReferenced {
		return ErrUnknownReference
	}
	return err
}
