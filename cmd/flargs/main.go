// Command flargs resolves argument vectors against a command schema file and
// prints what a program built on that schema would receive.
//
//	flargs --schema tool.yaml parse -- build --target x -j 4 src
//	flargs --schema tool.toml check --format yaml
//	flargs --schema tool.json tree
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/flargs"
	"github.com/dzonerzy/flargs/middleware"
	"github.com/dzonerzy/flargs/schemafile"
)

const version = "0.3.0"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], console.New()))
}

// run executes the CLI and returns the process exit code. Everything after
// the first "--" is the argument vector resolved by the parse command.
func run(ctx context.Context, argv []string, term *console.IOManager) int {
	own, target := splitArgs(argv)

	app, err := newApp(term, target)
	if err != nil {
		fmt.Fprintln(term.Err(), err)
		return 1
	}
	defer func() { _ = app.Logger().Close() }()

	return app.ExitCodes().Resolve(app.RunWithArgs(ctx, own))
}

func splitArgs(argv []string) (own, target []string) {
	if i := slices.Index(argv, "--"); i >= 0 {
		return argv[:i], argv[i+1:]
	}
	return argv, nil
}

func cliSchema() (*flargs.Command, error) {
	return flargs.NewCommand("flargs").
		Description("Resolve argument vectors against a command schema file.").
		Version(version).
		Help().
		Flag(flargs.NewFlag("schema").Short("s").
			Description("Schema file (.yaml, .yml, .toml or .json).").Required()).
		Flag(flargs.NewFlag("log-level").
			Description("Minimum log level: debug, info, success, warn or error.").Default("info")).
		Flag(flargs.NewFlag("log-file").
			Description("Also write log entries to this file, rotated by size.")).
		Command(flargs.NewCommand("parse").
			Description("Resolve the arguments given after -- and print the result.").
			Flag(flargs.NewFlag("format").Short("f").
				Description("Output format: json or yaml.").Default("json")).
			Flag(flargs.NewFlag("strict").Boolean().
				Description("Report missing required flags and params.")).
			Flag(flargs.NewFlag("nested").Boolean().
				Description("Print the nested per-command map instead of the flat view."))).
		Command(flargs.NewCommand("check").
			Description("Validate the schema and print it in normalized form.").
			Flag(flargs.NewFlag("format").Short("f").
				Description("Output format: yaml, toml or json. Without it only a summary is printed."))).
		Command(flargs.NewCommand("tree").
			Description("Print the command tree with flags and params.")).
		Build()
}

func newApp(term *console.IOManager, target []string) (*flargs.App, error) {
	schema, err := cliSchema()
	if err != nil {
		return nil, err
	}

	app := flargs.NewApp(schema).WithIO(term)
	app.ErrorHandler().ShowHelpOnError(false)

	app.Before(configureLogging).
		Use(
			middleware.Recovery(middleware.WithLogger(app.Logger())),
			middleware.Validate(middleware.File("schema")),
		).
		UseFor("parse", middleware.Validate(oneOf("format", "json", "yaml"))).
		UseFor("check", middleware.Validate(oneOf("format", "", "yaml", "toml", "json")))

	app.Handle("parse", parseAction(target)).
		Handle("check", checkAction).
		Handle("tree", treeAction)
	return app, nil
}

// configureLogging applies --log-level and --log-file to the app logger
func configureLogging(ctx *flargs.Context) error {
	name := ctx.MustString("log-level", "info")
	level, err := console.ParseLevel(name)
	if err != nil {
		return &middleware.ValidationError{Field: "log-level", Value: name, Message: "invalid --log-level", Cause: err}
	}

	logger := ctx.Logger().WithLevel(level)
	if path, ok := ctx.String("log-file"); ok && path != "" {
		logger.WithFile(path, console.DefaultRotation())
	}
	return nil
}

func oneOf(flag string, allowed ...string) middleware.NamedValidator {
	return middleware.Custom(flag, func(ctx middleware.Context) error {
		value, _ := ctx.String(flag)
		if slices.Contains(allowed, value) {
			return nil
		}
		return &middleware.ValidationError{
			Field:   flag,
			Value:   value,
			Message: fmt.Sprintf("unsupported --%s %q", flag, value),
		}
	})
}

func loadSchema(ctx *flargs.Context) (*flargs.Command, error) {
	path := ctx.MustString("schema", "")
	cmd, err := schemafile.Load(path)
	if err != nil {
		return nil, err
	}
	ctx.Logger().LogFields(console.LevelDebug, "schema loaded", console.Fields{
		"path":    path,
		"command": cmd.Name(),
	})
	return cmd, nil
}

func parseAction(target []string) flargs.ActionFunc {
	return func(ctx *flargs.Context) error {
		schema, err := loadSchema(ctx)
		if err != nil {
			return err
		}

		var opts []flargs.ParseOption
		if ctx.MustBool("strict", false) {
			opts = append(opts, flargs.WithStrict())
		}
		result, err := flargs.Parse(schema, target, opts...)
		if err != nil {
			return parseFailure(ctx, err)
		}

		var out any = newParseOutput(result)
		if ctx.MustBool("nested", false) {
			out = result.Map()
		}
		return writeValue(ctx.Stdout(), ctx.MustString("format", "json"), out)
	}
}

// parseFailure prints a resolution error the way the schema's own program
// would and exits with the matching code
func parseFailure(ctx *flargs.Context, err error) error {
	var parseErr *flargs.ParseError
	if !errors.As(err, &parseErr) {
		return err
	}
	handler := ctx.App.ErrorHandler()
	cliErr := handler.ProcessError(parseErr)
	fmt.Fprintln(ctx.Stderr(), handler.Format(cliErr))
	return &flargs.ExitError{Code: ctx.App.ExitCodes().Resolve(cliErr)}
}

func checkAction(ctx *flargs.Context) error {
	schema, err := loadSchema(ctx)
	if err != nil {
		return err
	}

	name, _ := ctx.String("format")
	if name == "" {
		s := summarize(schema)
		ctx.Logger().Success("%s: %d commands, %d flags, %d params", schema.Name(), s.commands, s.flags, s.params)
		return nil
	}

	format, err := schemafile.ParseFormat(name)
	if err != nil {
		return err
	}
	return schemafile.Encode(ctx.Stdout(), format, schemafile.FromCommand(schema))
}

func treeAction(ctx *flargs.Context) error {
	schema, err := loadSchema(ctx)
	if err != nil {
		return err
	}
	return writeTree(ctx.Stdout(), ctx.IO(), schema)
}
