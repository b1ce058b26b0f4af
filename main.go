// Command variantsgen generates, for an enum declared in Go, a generic record
// type with one field per variant and accessors keyed by variant values.
//
//	//go:generate go run github.com/cmmoran/variantsgen generate
package main

import "github.com/cmmoran/variantsgen/cmd"

func main() {
	cmd.Execute()
}
