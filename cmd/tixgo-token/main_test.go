package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-factory/internal/auth"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

func TestRunIssuesParsableToken(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--account", "alice", "-k", "ed25519:abc", "--secret", "s3cret", "--issuer", "tixgo"}, &out)
	require.NoError(t, err)

	raw, _, _ := strings.Cut(out.String(), "\n")

	tokens, err := auth.New("s3cret", "tixgo", nil)
	require.NoError(t, err)

	caller, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.Caller{Account: "alice", PublicKey: "ed25519:abc"}, caller)
}

func TestRunRejects(t *testing.T) {
	var out bytes.Buffer

	assert.Error(t, run([]string{"--secret", "s3cret"}, &out))
	assert.Error(t, run([]string{"--account", "alice", "--secret", ""}, &out))
	assert.Error(t, run([]string{"--account", "alice", "--secret", "x", "--ttl", "-1h"}, &out))
	assert.Error(t, run([]string{"--account", "alice", "--secret", "x", "extra"}, &out))
}
