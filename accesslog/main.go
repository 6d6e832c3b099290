// Command accesslog records and inspects cache access logs.
package main

import "github.com/sarchlab/accesslog/accesslog/cmd"

func main() {
	cmd.Execute()
}
