// Package remote models fallible remote sub-operations as serializable
// commands, runs them in order and hands their outcome to a continuation.
package remote

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

// Gas is the unit-of-work budget attributed to a single action.
type Gas uint64

// TGas is 10^12 gas.
const TGas Gas = 1_000_000_000_000

type ActionKind string

const (
	ActionCreateAccount    ActionKind = "create_account"
	ActionTransfer         ActionKind = "transfer"
	ActionAddFullAccessKey ActionKind = "add_full_access_key"
	ActionDeployCode       ActionKind = "deploy_code"
	ActionFunctionCall     ActionKind = "function_call"
)

type Action struct {
	Kind      ActionKind      `json:"kind"`
	Amount    domain.Amount   `json:"amount,omitempty"`
	PublicKey string          `json:"public_key,omitempty"`
	Code      string          `json:"code,omitempty"`
	Method    string          `json:"method,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Deposit   domain.Amount   `json:"deposit,omitempty"`
	Gas       Gas             `json:"gas,omitempty"`
}

// Stage is a batch of actions applied to one receiver. A stage succeeds or
// fails as a whole.
type Stage struct {
	Receiver domain.AccountID `json:"receiver"`
	Actions  []Action         `json:"actions"`
}

// Command is a chain of stages issued by Predecessor plus the continuation
// to run once the chain resolves. ID correlates the command with the saga
// that issued it.
type Command struct {
	ID          uuid.UUID        `json:"id"`
	Predecessor domain.AccountID `json:"predecessor"`
	Signer      domain.AccountID `json:"signer"`
	SignerKey   string           `json:"signer_key,omitempty"`
	Stages      []Stage          `json:"stages"`
	Callback    *Stage           `json:"callback,omitempty"`
}

// Gas sums the gas attached to every action of the command.
func (c *Command) Gas() Gas {
	var total Gas
	for _, st := range c.Stages {
		for _, a := range st.Actions {
			total += a.Gas
		}
	}
	if c.Callback != nil {
		for _, a := range c.Callback.Actions {
			total += a.Gas
		}
	}
	return total
}

type Result struct {
	Stage    int              `json:"stage"`
	Receiver domain.AccountID `json:"receiver"`
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Value    json.RawMessage  `json:"value,omitempty"`
}

// Succeeded reports whether every result succeeded. An empty chain has
// nothing to report and counts as a failure.
func Succeeded(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Failed returns a result set where every stage of cmd failed with err.
func Failed(cmd Command, err error) []Result {
	results := make([]Result, len(cmd.Stages))
	for i, st := range cmd.Stages {
		results[i] = Result{Stage: i, Receiver: st.Receiver, Error: err.Error()}
	}
	return results
}

// Call is what a method handler sees when a function-call action reaches it.
type Call struct {
	Receiver    domain.AccountID
	Predecessor domain.AccountID
	Signer      domain.AccountID
	SignerKey   string
	Method      string
	Args        json.RawMessage
	Deposit     domain.Amount
	Results     []Result
}

// Private rejects calls that do not come from the receiver itself.
func (c Call) Private() error {
	if c.Predecessor != c.Receiver {
		return fmt.Errorf("%w: method %s is private to %s, called by %s",
			domain.ErrUnauthorized, c.Method, c.Receiver, c.Predecessor)
	}
	return nil
}

// Decode unmarshals the call arguments into v.
func (c Call) Decode(v any) error {
	if err := json.Unmarshal(c.Args, v); err != nil {
		return fmt.Errorf("decode %s args: %w", c.Method, err)
	}
	return nil
}

// FunctionCall builds a function-call action with JSON-encoded args.
func FunctionCall(method string, args any, deposit domain.Amount, gas Gas) (Action, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return Action{}, fmt.Errorf("encode %s args: %w", method, err)
	}

	return Action{
		Kind:    ActionFunctionCall,
		Method:  method,
		Args:    b,
		Deposit: deposit,
		Gas:     gas,
	}, nil
}
