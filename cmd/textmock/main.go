// textmock serves HTTP mocks defined in plain-text mock files.
package main

import "github.com/textmock/textmock/pkg/cli"

func main() {
	cli.Execute()
}
