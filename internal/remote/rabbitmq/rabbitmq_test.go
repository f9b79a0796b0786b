package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-factory/internal/remote"
)

func testCommand(t *testing.T) *remote.Command {
	t.Helper()

	mint, err := remote.FunctionCall("confirm_mint", map[string]string{"token_id": "gala.vip.0"}, 10_000_000, 15*remote.TGas)
	require.NoError(t, err)
	settle, err := remote.FunctionCall("settle_purchase", map[string]any{"price": 1_510_000_000}, 0, 5*remote.TGas)
	require.NoError(t, err)

	return &remote.Command{
		ID:          uuid.New(),
		Predecessor: "gala.tixfactory",
		Signer:      "bob",
		Stages:      []remote.Stage{{Receiver: "gala.tixfactory", Actions: []remote.Action{mint}}},
		Callback:    &remote.Stage{Receiver: "gala.tixfactory", Actions: []remote.Action{settle}},
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	cmd := testCommand(t)

	b, err := Encode(Envelope{EnqueuedAt: 1_700_000_000_000, Command: cmd})
	require.NoError(t, err)

	again, err := Encode(Envelope{EnqueuedAt: 1_700_000_000_000, Command: cmd})
	require.NoError(t, err)
	assert.Equal(t, b, again, "encoding is deterministic")

	env, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, envelopeVersion, env.Version)
	assert.Equal(t, int64(1_700_000_000_000), env.EnqueuedAt)
	assert.Equal(t, cmd.ID, env.Command.ID)
	assert.Equal(t, cmd.Gas(), env.Command.Gas())
	require.Len(t, env.Command.Stages, 1)
	assert.Equal(t, cmd.Stages[0].Actions[0].Deposit, env.Command.Stages[0].Actions[0].Deposit)
	assert.JSONEq(t, string(cmd.Callback.Actions[0].Args), string(env.Command.Callback.Actions[0].Args))
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("not cbor"))
	assert.Error(t, err)

	b, err := encMode.Marshal(Envelope{Version: 99, Command: &remote.Command{}})
	require.NoError(t, err)
	_, err = Decode(b)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	b, err = Encode(Envelope{})
	require.NoError(t, err)
	_, err = Decode(b)
	assert.ErrorIs(t, err, remote.ErrEmptyCommand)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []amqp.Publishing
	keys []string
	err  error
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, msg)
	return nil
}

type recordingRunner struct {
	mu       sync.Mutex
	stages   int
	callback error
}

func (r *recordingRunner) RunStage(ctx context.Context, cmd *remote.Command, st remote.Stage, results []remote.Result) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.Callback != nil && st.Actions[0].Method == cmd.Callback.Actions[0].Method {
		return nil, r.callback
	}
	r.stages++
	return nil, nil
}

func TestSchedulerPublishesPersistentMessages(t *testing.T) {
	pub := &fakePublisher{}
	exec := remote.NewExecutor(&recordingRunner{}, remote.ExecutorConfig{}, nil)
	s := NewScheduler(pub, "", exec, slog.Default())

	cmd := testCommand(t)
	require.NoError(t, s.Submit(context.Background(), cmd))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, DefaultQueue, pub.keys[0])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, ContentType, msg.ContentType)
	assert.Equal(t, cmd.ID.String(), msg.MessageId)

	env, err := Decode(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, cmd.ID, env.Command.ID)

	assert.ErrorIs(t, s.Submit(context.Background(), &remote.Command{}), remote.ErrEmptyCommand)

	pub.err = errors.New("connection closed")
	assert.Error(t, s.Submit(context.Background(), cmd))
}

type fakeAck struct {
	acks, nacks int
	requeued    bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeued = a.requeued || requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestConsumerHandle(t *testing.T) {
	body, err := Encode(Envelope{Command: testCommand(t)})
	require.NoError(t, err)

	t.Run("acks an executed command", func(t *testing.T) {
		runner := &recordingRunner{}
		c := &Consumer{exec: remote.NewExecutor(runner, remote.ExecutorConfig{}, nil), logger: slog.Default()}

		ack := &fakeAck{}
		c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.Equal(t, 1, ack.acks)
		assert.Equal(t, 0, ack.nacks)
		assert.Equal(t, 1, runner.stages)
	})

	t.Run("drops a failed continuation", func(t *testing.T) {
		runner := &recordingRunner{callback: errors.New("db down")}
		c := &Consumer{exec: remote.NewExecutor(runner, remote.ExecutorConfig{}, nil), logger: slog.Default()}

		ack := &fakeAck{}
		c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeued)
	})

	t.Run("drops garbage", func(t *testing.T) {
		runner := &recordingRunner{}
		c := &Consumer{exec: remote.NewExecutor(runner, remote.ExecutorConfig{}, nil), logger: slog.Default()}

		ack := &fakeAck{}
		c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte{0xff}})

		assert.Equal(t, 1, ack.nacks)
		assert.Equal(t, 0, runner.stages)
	})
}
