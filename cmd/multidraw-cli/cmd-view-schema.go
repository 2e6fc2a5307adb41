package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/facette/natsort"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

type viewSchemaCmd struct {
	Files []string `arg:"" help:"parquet files" type:"existingfile"`
}

func (cmd *viewSchemaCmd) Run(_ *globalOptions) error {
	for _, path := range cmd.Files {
		if err := viewSchema(path); err != nil {
			return err
		}
	}
	return nil
}

func viewSchema(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}

	fmt.Printf("\n***************       %s      ********************\n\n", path)
	fmt.Println(pf.Schema().String())
	fmt.Printf("rows: %s, row groups: %d\n\n", humanize.Comma(pf.NumRows()), len(pf.RowGroups()))

	columnSizes := map[string]int64{}
	for _, rg := range pf.RowGroups() {
		for _, cc := range rg.ColumnChunks() {
			path, _ := getNodePathByIndex(pf.Root(), "", cc.Column())

			var size int64
			idx, err := cc.OffsetIndex()
			if err != nil {
				return err
			}
			for pg := 0; pg < idx.NumPages(); pg++ {
				size += idx.CompressedPageSize(pg)
			}

			columnSizes[path] += size
		}
	}

	paths := make([]string, 0, len(columnSizes))
	for k := range columnSizes {
		paths = append(paths, k)
	}
	natsort.Sort(paths)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"column", "size"})
	for _, p := range paths {
		t.AppendRow(table.Row{p, humanize.Bytes(uint64(columnSizes[p]))})
	}
	t.Render()
	return nil
}

func getNodePathByIndex(root *parquet.Column, s string, i int) (string, bool) {
	s = s + "." + root.Name()

	if root.Index() == i {
		return s, true
	}
	for _, col := range root.Columns() {
		if path, ok := getNodePathByIndex(col, s, i); ok {
			return path, true
		}
	}
	return "", false
}
