package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txwatch/sigview/client"
)

func TestApplyFilter_FieldAccess(t *testing.T) {
	record := client.DemoRecord()

	results, err := applyFilter(record, ".signature")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, client.DemoSignature, results[0])
}

func TestApplyFilter_Expression(t *testing.T) {
	record := client.DemoRecord()

	results, err := applyFilter(record, ".details.solChanges | map(.change) | add")
	require.NoError(t, err)
	require.Len(t, results, 1)
	// Net lamport movement between payer and recipient is zero.
	assert.EqualValues(t, 0, results[0])
}

func TestApplyFilter_MultipleResults(t *testing.T) {
	record := client.DemoRecord()

	results, err := applyFilter(record, ".details.accounts[].pubkey")
	require.NoError(t, err)
	assert.Len(t, results, len(record.Details.Accounts))
}

func TestApplyFilter_ParseError(t *testing.T) {
	_, err := applyFilter(map[string]any{}, ".[invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}

func TestApplyFilter_RuntimeError(t *testing.T) {
	_, err := applyFilter("just a string", ".foo.bar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jq filter error")
}
