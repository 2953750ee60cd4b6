// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jmoiron/sqlx/reflectx"
)

var (
	Table  = table.NewWriter()
	Mapper = reflectx.NewMapper("json")

	// Formatters is wired into the command line parser as an option group.
	Formatters struct {
		Format     string   `short:"f" long:"format" description:"The output format, defaults to table" choice:"table" choice:"csv" choice:"markdown" choice:"html" choice:"value" default:"table"`
		Columns    []string `short:"c" long:"column" description:"specify the column(s) to include, can be repeated to show multiple columns"`
		SortColumn []string `long:"sort-column" description:"specify the column(s) to sort the data (columns specified first have a priority, non-existing columns are ignored), can be repeated"`
	}
)

func init() {
	Table.SetOutputMirror(os.Stdout)
}

func formatValue(v reflect.Value) string {
	switch kind := v.Kind(); kind {
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Ptr:
		if v.IsNil() {
			return "Null"
		}
		return formatValue(v.Elem())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getRow(row reflect.Value, iMap []int) table.Row {
	if row.Kind() == reflect.Ptr {
		row = row.Elem()
	}

	r := make([]any, 0)
	for i := 0; i < len(iMap); i++ {
		r = append(r, formatValue(row.Field(iMap[i])))
	}
	return r
}

func addSortedHeader(v reflect.Value) ([]int, error) {
	type IndexMap struct {
		Header string
		Index  int
	}

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	header := make([]any, 0)
	var indexes []int
	if len(Formatters.Columns) > 0 {
		// Filter columns
		for _, column := range Formatters.Columns {
			header = append(header, column)
		}
		for column, index := range Mapper.TraversalsByName(v.Type(), Formatters.Columns) {
			if len(index) == 0 {
				return nil, fmt.Errorf("column '%s' is not a valid column filter", Formatters.Columns[column])
			}
			indexes = append(indexes, index[0])
		}
	} else {
		var indexMap []IndexMap

		tm := Mapper.TypeMap(v.Type())
		for tagName, fi := range tm.Names {
			indexMap = append(indexMap, IndexMap{tagName, fi.Index[0]})
		}

		// Stable sort, name first, error last
		sort.SliceStable(indexMap, func(i, j int) bool {
			if indexMap[i].Header == "name" {
				return true
			} else if indexMap[j].Header == "name" {
				return false
			} else if indexMap[i].Header == "error" {
				return false
			} else if indexMap[j].Header == "error" {
				return true
			}
			return indexMap[i].Index < indexMap[j].Index
		})

		for _, v := range indexMap {
			header = append(header, v.Header)
			indexes = append(indexes, v.Index)
		}
	}

	if Formatters.Format != "value" {
		Table.AppendHeader(header)
	}
	return indexes, nil
}

// WriteTable scans a slice of structs and renders it in the selected format.
func WriteTable(data any) error {
	Table.ResetHeaders()
	Table.ResetRows()

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Slice && v.Len() > 0 {
		indexMap, err := addSortedHeader(v.Index(0))
		if err != nil {
			return err
		}
		for i := 0; i < v.Len(); i++ {
			Table.AppendRow(getRow(v.Index(i), indexMap))
		}
	}

	if len(Formatters.SortColumn) > 0 {
		var tableSorter []table.SortBy
		for _, sortColumn := range Formatters.SortColumn {
			tableSorter = append(tableSorter, table.SortBy{
				Name: sortColumn,
			})
		}
		Table.SortBy(tableSorter)
	}

	switch Formatters.Format {
	case "table":
		Table.SetStyle(table.StyleLight)
		Table.Render()
	case "csv":
		Table.RenderCSV()
	case "markdown":
		Table.RenderMarkdown()
	case "html":
		Table.RenderHTML()
	case "value":
		Table.SetStyle(table.Style{
			Name: "value",
			Box: table.BoxStyle{
				MiddleHorizontal: " ",
				MiddleVertical:   " ",
			},
			Options: table.OptionsNoBorders,
		})
		Table.Render()
	default:
		return fmt.Errorf("format option %s is not supported", Formatters.Format)
	}

	return nil
}
