package client

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrMissingID = errors.New("client id cannot be empty")
)

// Client holds state for the concept.
type Client struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	DNI              string // national id, used at the check-in desk
	RegistrationDate time.Time // calendar date; zero when the backend has none
	Active           bool
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ID must not be empty
func (c *Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	return nil
}

// IsRegistered reports whether the client has a known registration date.
func (c *Client) IsRegistered() bool {
	return !c.RegistrationDate.IsZero()
}

// CanReceiveEmail reports whether the client has an address that looks deliverable.
func (c *Client) CanReceiveEmail() bool {
	return strings.Contains(c.Email, "@")
}

// DisplayName returns the name, falling back to the id.
func (c *Client) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "Cliente " + c.ID
}
