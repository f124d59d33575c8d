// Package main provides the stepwise-mcp binary — MCP server for AI agents.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
	smcp "github.com/ormasoftchile/stepwise/pkg/ecosystem/mcp"
)

var version = "dev"

func main() {
	corpusDir := flag.String("corpus", "articles", "Directory of article YAML files")
	flag.Parse()

	store, err := corpus.Open(*corpusDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := smcp.NewServer(version, store)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
