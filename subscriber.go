package markblog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// DefaultInterests are the newsletter topics offered when none are configured.
var DefaultInterests = []string{"Web Development", "Design", "JavaScript", "React"}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubscriberStore interface {
	// Init initializes the subscriber store, such as creating the necessary tables or buckets.
	Init() error
	// Add stores a new subscriber. It returns ErrSubscriberExists if the email is already subscribed.
	Add(ctx context.Context, sub *Subscriber) error
	// Get retrieves a subscriber by email.
	Get(ctx context.Context, email string) (*Subscriber, error)
	// List returns all subscribers, oldest first.
	List(ctx context.Context) ([]*Subscriber, error)
	// Delete removes a subscriber by email.
	Delete(ctx context.Context, email string) error
	// Close closes the subscriber store.
	Close() error
}

// NewSubscriber validates a signup and returns the subscriber to store. The email is
// normalized to lower case and every interest must be one of allowed.
func NewSubscriber(name, email string, interests, allowed []string) (*Subscriber, error) {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Interests: make([]string, 0, len(interests)),
		CreatedAt: time.Now().UTC(),
	}

	for _, interest := range interests {
		interest = strings.TrimSpace(interest)
		if interest == "" || slices.Contains(sub.Interests, interest) {
			continue
		}
		sub.Interests = append(sub.Interests, interest)
	}

	if err := sub.Validate(allowed); err != nil {
		return nil, err
	}

	return sub, nil
}

// Validate checks the subscriber fields. Email problems are reported as ErrInvalidEmail
// and interests outside allowed as ErrInvalidInterest.
func (s *Subscriber) Validate(allowed []string) error {
	choices := make([]any, len(allowed))
	for i, a := range allowed {
		choices[i] = a
	}

	err := validation.ValidateStruct(s,
		validation.Field(&s.Email, validation.Required, is.EmailFormat),
		validation.Field(&s.Name, validation.Length(0, 100)),
		validation.Field(&s.Interests, validation.Each(validation.In(choices...))),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	if e, ok := fieldErrs["email"]; ok {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, e)
	}
	if e, ok := fieldErrs["interests"]; ok {
		return fmt.Errorf("%w: %v", ErrInvalidInterest, e)
	}
	return fieldErrs
}

// NormalizeEmail trims an email address and returns it in lower case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
