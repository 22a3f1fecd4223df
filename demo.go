package main

import (
	_ "embed"
	"strings"
)

//go:embed demo.todo
var demoFile string

// demoDocument returns the sample lists opened by --demo. Nothing in demo
// mode touches the disk.
func demoDocument() document {
	doc, err := decode(strings.NewReader(demoFile), "demo.todo")
	if err != nil {
		panic("demo.todo: " + err.Error())
	}
	return doc
}
