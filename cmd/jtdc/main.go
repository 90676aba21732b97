package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	jtdc "github.com/okutani/jtdc"
)

func main() {
	fs := flag.NewFlagSet("jtdc", flag.ExitOnError)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "path to a JTD schema (.json, .yaml or .yml)")
	fs.Usage = usage
	_ = fs.Parse(os.Args[1:])
	if schemaPath == "" {
		usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		fatalf("read schema: %v", err)
	}
	var s *jtdc.Schema
	switch filepath.Ext(schemaPath) {
	case ".yaml", ".yml":
		s, err = jtdc.SchemaFromYAML(raw)
	default:
		s, err = jtdc.SchemaFromJSON(raw)
	}
	if err != nil {
		fatalf("%v", err)
	}
	p, err := jtdc.Compile(s)
	if err != nil {
		fatalf("%v", err)
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatalf("read input: %v", err)
	}
	v, err := p.Parse(input)
	if err != nil {
		if iss, ok := jtdc.AsIssues(err); ok {
			for _, it := range iss {
				fmt.Fprintf(os.Stderr, "%s at offset %d: %s\n", it.Code, it.Offset, it.Message)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("encode value: %v", err)
	}
	fmt.Println(string(out))
}

func usage() {
	fmt.Fprintln(os.Stderr, "jtdc CLI\n\nUsage:\n  jtdc -schema schema.json < input.json\n\nCompiles the schema, parses stdin against it, and prints the value.\nExit codes: 1 parse failure, 2 usage or schema failure.")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
