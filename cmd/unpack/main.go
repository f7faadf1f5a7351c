// Command unpack builds, publishes and installs installer payloads.
package main

import "github.com/meigma/unpack/internal/cli"

func main() {
	cli.Execute()
}
