// Command proteo ranks the proteins of an interaction network by
// predicted essentiality.
package main

import "github.com/papapumpkin/proteo/cmd"

func main() {
	cmd.Execute()
}
