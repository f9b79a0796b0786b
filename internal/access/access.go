// Package access implements single-owner authorization.
package access

import (
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Control holds the identity allowed to run owner-gated operations.
// The zero value of ID is the renounced state: no caller can match it.
type Control[ID comparable] struct {
	Owner ID `json:"owner"`
}

func New[ID comparable](owner ID) Control[ID] {
	return Control[ID]{Owner: owner}
}

// Guard returns ErrUnauthorized unless caller is the current owner.
func (c Control[ID]) Guard(caller ID) error {
	var zero ID
	if c.Owner == zero || caller != c.Owner {
		return fmt.Errorf("%w: caller %v is not owner %v", ErrUnauthorized, caller, c.Owner)
	}
	return nil
}

// Renounced reports whether ownership was given up.
func (c Control[ID]) Renounced() bool {
	var zero ID
	return c.Owner == zero
}

func (c *Control[ID]) Transfer(caller, newOwner ID) error {
	if err := c.Guard(caller); err != nil {
		return err
	}
	c.Owner = newOwner
	return nil
}

// Renounce permanently disables owner-gated operations.
func (c *Control[ID]) Renounce(caller ID) error {
	if err := c.Guard(caller); err != nil {
		return err
	}
	var zero ID
	c.Owner = zero
	return nil
}
