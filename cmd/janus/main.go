// janus — privacy boundary daemon for LLM conversations.
package main

import "github.com/januspriv/janus/internal/cli"

func main() {
	cli.Execute()
}
