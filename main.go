// Command gugo-screener is the CLI entry point; see cmd/root.go for the
// full verb list.
package main

import "github.com/chenhom/gugo-screener/cmd"

func main() {
	cmd.Execute()
}
