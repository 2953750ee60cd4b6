// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Error  string `json:"error"`
}

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	Table.SetOutputMirror(&buf)
	defer Table.SetOutputMirror(os.Stdout)

	Formatters.Format = "csv"
	Formatters.Columns = nil

	err := WriteTable([]testRow{
		{Name: "RouterLifecycle", Status: "PASSED"},
		{Name: "ExtraRoutes", Status: "SKIPPED", Error: "extraroute extension not enabled"},
	})
	require.Nil(t, err)

	out := buf.String()
	// name sorts first, error last; CSV keeps the raw header names
	assert.Contains(t, out, "name,status,error")
	assert.Contains(t, out, "RouterLifecycle,PASSED,")
	assert.Contains(t, out, "ExtraRoutes,SKIPPED,extraroute extension not enabled")
}

func TestWriteTableColumnFilter(t *testing.T) {
	var buf bytes.Buffer
	Table.SetOutputMirror(&buf)
	defer Table.SetOutputMirror(os.Stdout)

	Formatters.Format = "csv"
	Formatters.Columns = []string{"name"}
	defer func() { Formatters.Columns = nil }()

	err := WriteTable([]testRow{{Name: "RouterLifecycle", Status: "PASSED"}})
	require.Nil(t, err)

	out := buf.String()
	assert.Contains(t, out, "RouterLifecycle")
	assert.NotContains(t, out, "PASSED")
}

func TestWriteTableUnknownFormat(t *testing.T) {
	Formatters.Format = "json"
	defer func() { Formatters.Format = "table" }()

	assert.Error(t, WriteTable([]testRow{{Name: "x"}}))
}
