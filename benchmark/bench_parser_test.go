//nolint:testpackage // using package name 'benchmark' to access unexported fields for testing
package benchmark

import (
	"testing"

	"github.com/dzonerzy/flargs/flargs"
)

// Category: parser

func mustBuild(b *testing.B, cmd flargs.CommandBuilder) *flargs.Command {
	b.Helper()
	schema, err := cmd.Build()
	if err != nil {
		b.Fatal(err)
	}
	return schema
}

func benchParse(b *testing.B, parser *flargs.Parser, schema *flargs.Command, args []string) *flargs.Result {
	b.Helper()
	var result *flargs.Result
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var err error
		result, err = parser.Parse(schema, args)
		if err != nil || result == nil {
			b.Fatal(err)
		}
	}
	return result
}

func buildSimpleSchema(b *testing.B) *flargs.Command {
	return mustBuild(b, flargs.NewCommand("bench").
		Flag(flargs.NewFlag("port").Number().Default(8080)).
		Flag(flargs.NewFlag("verbose").Short("v").Boolean()).
		Flag(flargs.NewFlag("config")))
}

func BenchmarkParserSimple(b *testing.B) {
	result := benchParse(b, flargs.NewParser(), buildSimpleSchema(b), []string{"--port", "8080", "--verbose"})
	if v, ok := result.Bool("verbose"); !ok || !v {
		b.Fatalf("verbose not parsed")
	}
}

func BenchmarkParserInlineValues(b *testing.B) {
	args := []string{"--port=8080", "--verbose=true", "--config=/path/to/config.json"}
	benchParse(b, flargs.NewParser(), buildSimpleSchema(b), args)
}

func BenchmarkParserSubcommands(b *testing.B) {
	schema := mustBuild(b, flargs.NewCommand("bench").
		Flag(flargs.NewFlag("global").Boolean()).
		Command(flargs.NewCommand("serve").
			Flag(flargs.NewFlag("port").Number().Default(8080)).
			Flag(flargs.NewFlag("host").Default("localhost"))))

	args := []string{"--global", "serve", "--port", "8080", "--host", "localhost"}
	result := benchParse(b, flargs.NewParser(), schema, args)
	if result.Command.Name() != "serve" {
		b.Fatalf("command mismatch")
	}
}

func BenchmarkParserArraysAndParams(b *testing.B) {
	schema := mustBuild(b, flargs.NewCommand("bench").
		Flag(flargs.NewFlag("tag").Array()).
		Flag(flargs.NewFlag("port").Number().Array()).
		Param(flargs.NewParam("source").Required()).
		Param(flargs.NewParam("targets").Array()))

	args := []string{"--tag", "a", "--port", "80", "src", "--tag", "b", "--port", "443", "t1", "t2", "t3"}
	result := benchParse(b, flargs.NewParser(), schema, args)
	if targets, _ := result.Param("targets"); len(targets.([]string)) != 3 {
		b.Fatalf("targets not bound: %v", targets)
	}
}

func BenchmarkParserStrict(b *testing.B) {
	schema := mustBuild(b, flargs.NewCommand("bench").
		Flag(flargs.NewFlag("token").Required()).
		Command(flargs.NewCommand("push").
			Flag(flargs.NewFlag("remote").Required()).
			Param(flargs.NewParam("ref").Required())))

	args := []string{"--token", "t", "push", "--remote", "origin", "main"}
	benchParse(b, flargs.NewParser(flargs.WithStrict()), schema, args)
}

func BenchmarkParserErrorSuggestion(b *testing.B) {
	schema := buildSimpleSchema(b)
	parser := flargs.NewParser()
	args := []string{"--prot", "8080"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Parse(schema, args); err == nil {
			b.Fatal("expected error")
		}
	}
}

func BenchmarkParserParallel(b *testing.B) {
	schema := buildSimpleSchema(b)
	parser := flargs.NewParser()
	args := []string{"--port", "9000", "-v", "--config", "c.json"}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := parser.Parse(schema, args); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
