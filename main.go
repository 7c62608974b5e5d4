/*
Copyright © 2025 Kestrel Systems Inc.
*/
package main

import "github.com/kestrelhq/ddrgen/cmd"

func main() {
	cmd.Execute()
}
