package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/metrics"
	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/queue"
	"github.com/iliyamo/streamtv/internal/repository"
	"github.com/iliyamo/streamtv/internal/session"
	"github.com/iliyamo/streamtv/internal/utils"
)

const (
	customerIDPrefix = "cust"
	maxCustomerNum   = 9999
	maxIDBackoff     = 20 * time.Millisecond
)

// CustomerStore is the persistence the identity service needs.
type CustomerStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	LatestID(ctx context.Context) (string, error)
	Insert(ctx context.Context, c model.Customer) error
	CredentialsByUsername(ctx context.Context, username string) ([]model.Credentials, error)
	GetByID(ctx context.Context, id string) (model.Customer, error)
}

// RegisterInput is the submitted registration form.
type RegisterInput struct {
	Username        string `form:"uname" json:"uname" validate:"required,min=5"`
	Password        string `form:"password" json:"password" validate:"required,min=5"`
	ConfirmPassword string `form:"verify_password" json:"verify_password" validate:"eqfield=Password"`
	FirstName       string `form:"fname" json:"fname" validate:"required"`
	LastName        string `form:"lname" json:"lname" validate:"required"`
	Email           string `form:"email" json:"email" validate:"required,email"`
	CreditCard      string `form:"ccard" json:"ccard" validate:"required,min=10"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.CreditCard = strings.TrimSpace(in.CreditCard)
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string `form:"uname" json:"uname" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// IdentityService registers customers and verifies credentials.
type IdentityService struct {
	customers  CustomerStore
	events     EventPublisher
	clock      Clock
	bcryptCost int
	dummyHash  string
}

func NewIdentityService(customers CustomerStore, events EventPublisher, clock Clock, bcryptCost int) *IdentityService {
	if events == nil {
		events = NopPublisher{}
	}
	// Compared against when no account matches so that unknown usernames
	// cost the same as wrong passwords.
	dummy, _ := utils.HashPassword("streamtv-no-such-user", bcryptCost)
	return &IdentityService{
		customers:  customers,
		events:     events,
		clock:      clock,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}
}

// Register validates in, allocates the next customer identifier and
// stores the new customer.  It does not log the customer in.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (model.Customer, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return model.Customer{}, err
	}

	taken, err := s.customers.UsernameExists(ctx, in.Username)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return model.Customer{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return model.Customer{}, ErrDuplicateUsername
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return model.Customer{}, validationFailed("password", "This value is too long. It should have 72 bytes or less.")
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return model.Customer{}, fmt.Errorf("hash password: %w", err)
	}

	today := s.clock.Today()
	c := model.Customer{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		CreditCard:   in.CreditCard,
		MemberSince:  today,
		RenewalDate:  today,
	}

	if err := s.insertWithNextID(ctx, &c); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return model.Customer{}, err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	logger.Log.Info("customer registered",
		zap.String("cust_id", c.ID),
		zap.String("username", c.Username))
	publish(ctx, s.events, queue.ActivityEvent{
		Type:       queue.EventCustomerRegistered,
		CustomerID: c.ID,
		Username:   c.Username,
	})

	c.PasswordHash = ""
	return c, nil
}

// insertWithNextID reads the largest identifier, inserts under its
// successor and retries when a concurrent registration claimed it first.
// Every collision means another registration committed, so the loop makes
// progress; it stops when ctx is done.
func (s *IdentityService) insertWithNextID(ctx context.Context, c *model.Customer) error {
	for attempt := 1; ; attempt++ {
		latest, err := s.customers.LatestID(ctx)
		if err != nil {
			return fmt.Errorf("read latest customer id: %w", err)
		}
		n := 0
		if latest != "" {
			if n, err = ParseCustomerNumber(latest); err != nil {
				return err
			}
		}
		id, err := FormatCustomerID(n + 1)
		if err != nil {
			return err
		}
		c.ID = id

		err = s.customers.Insert(ctx, *c)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrUsernameTaken):
			return ErrDuplicateUsername
		case !errors.Is(err, repository.ErrCustomerIDTaken):
			return fmt.Errorf("insert customer: %w", err)
		}

		logger.Log.Debug("customer id collision; retrying",
			zap.String("cust_id", id), zap.Int("attempt", attempt))
		if err := backoff(ctx, attempt); err != nil {
			return fmt.Errorf("allocate customer id after %d attempts: %w", attempt, err)
		}
	}
}

// backoff sleeps a random duration that grows with attempt up to
// maxIDBackoff, returning early with ctx's error.
func backoff(ctx context.Context, attempt int) error {
	ceiling := time.Duration(attempt) * time.Millisecond
	if ceiling > maxIDBackoff {
		ceiling = maxIDBackoff
	}
	t := time.NewTimer(time.Duration(rand.Int63n(int64(ceiling))) + 1)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Login verifies the credentials and returns the matching customer id.
// Unknown usernames, ambiguous usernames and wrong passwords all yield
// ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", err
	}

	creds, err := s.customers.CredentialsByUsername(ctx, in.Username)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if len(creds) != 1 {
		if len(creds) > 1 {
			logger.Log.Warn("username matches several customers", zap.String("username", in.Username))
		}
		utils.VerifyPassword(s.dummyHash, in.Password)
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", ErrInvalidCredentials
	}
	if !utils.VerifyPassword(creds[0].PasswordHash, in.Password) {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", ErrInvalidCredentials
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return creds[0].CustomerID, nil
}

// Profile loads the logged-in customer's record without the password hash.
func (s *IdentityService) Profile(ctx context.Context, id session.Identity) (model.Customer, error) {
	if !id.Authenticated {
		return model.Customer{}, ErrUnauthenticated
	}
	c, err := s.customers.GetByID(ctx, id.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Customer{}, ErrNotFound
		}
		return model.Customer{}, fmt.Errorf("load customer: %w", err)
	}
	c.PasswordHash = ""
	return c, nil
}

// ParseCustomerNumber extracts the numeric part of a customer identifier
// such as "cust0007".  Legacy identifiers of any width are accepted.
func ParseCustomerNumber(id string) (int, error) {
	digits, ok := strings.CutPrefix(id, customerIDPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("malformed customer id %q", id)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("malformed customer id %q", id)
	}
	return n, nil
}

// FormatCustomerID renders n as "cust" followed by four zero-padded digits.
func FormatCustomerID(n int) (string, error) {
	if n < 1 || n > maxCustomerNum {
		return "", ErrCustomerIDExhausted
	}
	return fmt.Sprintf("%s%04d", customerIDPrefix, n), nil
}
