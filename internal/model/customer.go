package model

import "time"

// Customer represents a subscriber record as stored in the `customer`
// table.  The password column only ever holds a bcrypt hash.
//
// Fields:
//  ID           – externally visible identifier (cust0001, cust0002, ...).
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – customer.fname.
//  LastName     – customer.lname.
//  Email        – contact address.
//  CreditCard   – payment card reference; stored, never validated or charged.
//  MemberSince  – date the membership started.
//  RenewalDate  – currently equal to MemberSince at registration.
type Customer struct {
	ID           string    // customer.custID
	Username     string    // customer.username
	PasswordHash string    // customer.password
	FirstName    string    // customer.fname
	LastName     string    // customer.lname
	Email        string    // customer.email
	CreditCard   string    // customer.creditcard
	MemberSince  time.Time // customer.membersince
	RenewalDate  time.Time // customer.renewaldate
}

// Credentials is the subset of a customer row needed to verify a login.
type Credentials struct {
	CustomerID   string
	PasswordHash string
}
