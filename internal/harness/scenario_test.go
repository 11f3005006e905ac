package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: basic
description: a minimal scenario
funding:
  - account: alice
    amount: 500
steps:
  - op: create
    caller: alice
    title: run
    window_days: 3
    loss_recipient: bob
    deposit: 100
    expect:
      id: 0
  - advance: 24h
assertions:
  - type: balance
    account: escrow
    amount: 100
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, OpCreate, s.Steps[0].Op)
	require.NotNil(t, s.Steps[0].Expect)
	require.NotNil(t, s.Steps[0].Expect.ID)
	assert.Equal(t, uint64(0), *s.Steps[0].Expect.ID)
	assert.Equal(t, "24h", s.Steps[1].Advance)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
steps:
  - op: fund
    account: alice
    amount: 100
assertion:
  - type: balance
    account: alice
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, `
steps:
  - op: fund
    account: alice
    amount: 100
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "name is required")
}

func TestLoadScenario_NoSteps(t *testing.T) {
	path := writeScenario(t, `
name: empty
steps: []
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "at least one step")
}

func TestLoadScenario_UnknownOp(t *testing.T) {
	path := writeScenario(t, `
name: badop
steps:
  - op: teleport
    caller: alice
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, `unknown op "teleport"`)
}

func TestLoadScenario_BadAdvance(t *testing.T) {
	path := writeScenario(t, `
name: badadvance
steps:
  - advance: tomorrow
    op: checkin
    caller: alice
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "bad advance duration")
}

func TestLoadScenario_StepNeedsOpOrAdvance(t *testing.T) {
	path := writeScenario(t, `
name: emptystep
steps:
  - caller: alice
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "op or an advance")
}

func TestLoadScenario_ForfeitNeedsOwner(t *testing.T) {
	path := writeScenario(t, `
name: noowner
steps:
  - op: claim_forfeit
    caller: bob
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "claim_forfeit needs caller and owner")
}

func TestLoadScenario_UnknownAssertionType(t *testing.T) {
	path := writeScenario(t, `
name: badassert
steps:
  - op: fund
    account: alice
    amount: 100
assertions:
  - type: vibes
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, `unknown assertion type "vibes"`)
}

func TestLoadScenario_UnknownRecordField(t *testing.T) {
	path := writeScenario(t, `
name: badfield
steps:
  - op: fund
    account: alice
    amount: 100
assertions:
  - type: record_state
    owner: alice
    expect:
      colour: red
`)

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, `unknown field "colour"`)
}
