// Package rabbitmq carries remote commands over a durable RabbitMQ queue so
// that chains survive a restart of the process that issued them.
package rabbitmq

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/kirinyoku/tix-factory/internal/remote"
)

const (
	ContentType     = "application/cbor"
	envelopeVersion = 1
)

var ErrUnsupportedVersion = errors.New("unsupported envelope version")

// Envelope is the message body of a queued command.
type Envelope struct {
	Version    int             `cbor:"v"`
	EnqueuedAt int64           `cbor:"at"`
	Command    *remote.Command `cbor:"cmd"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core deterministic encoding: the same command always yields the same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rabbitmq: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("rabbitmq: CBOR decoder initialization failed: " + err.Error())
	}
}

func Encode(env Envelope) ([]byte, error) {
	if env.Version == 0 {
		env.Version = envelopeVersion
	}
	b, err := encMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	if env.Version != envelopeVersion {
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	if env.Command == nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", remote.ErrEmptyCommand)
	}

	return env, nil
}
