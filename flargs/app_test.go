//nolint:testpackage // using package name 'flargs' to access unexported fields for testing
package flargs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/middleware"
	"github.com/google/go-cmp/cmp"
)

func appSchema(t *testing.T) *Command {
	t.Helper()
	cmd, err := NewCommand("tool").
		Description("Build and serve projects.").
		Version("1.2.3").
		Help().
		Flag(NewFlag("verbose").Boolean()).
		Command(NewCommand("build").
			Alias("b").
			Description("Compile the project.").
			Flag(NewFlag("jobs").Short("j").Number().Default(1)).
			Flag(NewFlag("target").Required()).
			Param(NewParam("dir").Default("."))).
		Command(NewCommand("serve").
			Description("Serve the project.").
			Flag(NewFlag("timeout").Number())).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return cmd
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(appSchema(t)).WithIO(console.New().WithOut(&out).WithErr(&errOut).NoColor())
	return app, &out, &errOut
}

func TestApp_RunsBoundAction(t *testing.T) {
	app, _, _ := newTestApp(t)

	var got struct {
		path    []string
		jobs    float64
		target  string
		dir     any
		verbose bool
	}
	app.Handle("build", func(ctx *Context) error {
		got.path = ctx.Path()
		got.jobs, _ = ctx.Number("jobs")
		got.target, _ = ctx.String("target")
		got.dir, _ = ctx.Param("dir")
		got.verbose = ctx.MustBool("verbose", false)
		return nil
	})

	err := app.RunWithArgs(context.Background(), []string{"--verbose", "b", "--target", "linux", "-j", "4", "src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"tool", "build"}, got.path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if got.jobs != 4 || got.target != "linux" || got.dir != "src" || !got.verbose {
		t.Errorf("unexpected values %+v", got)
	}
}

func TestApp_HandlePathForms(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Handle("tool.serve", func(*Context) error { return nil })
	app.Action(func(*Context) error { return nil })

	if _, ok := app.actions["tool.serve"]; !ok {
		t.Error("full dotted path should be kept")
	}
	if _, ok := app.actions["tool"]; !ok {
		t.Error("Action should bind the root")
	}
	if got := app.pathKey("build"); got != "tool.build" {
		t.Errorf("pathKey(build) = %q", got)
	}
}

func TestApp_StrictMissingRequired(t *testing.T) {
	app, _, errOut := newTestApp(t)
	called := false
	app.Handle("build", func(*Context) error {
		called = true
		return nil
	})

	err := app.RunWithArgs(context.Background(), []string{"build"})
	if !IsErrorType(err, ErrorTypeMissingRequired) {
		t.Fatalf("expected missing_required, got %v", err)
	}
	if called {
		t.Error("action must not run")
	}
	if !strings.Contains(errOut.String(), "Error: ") || !strings.Contains(errOut.String(), "target") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
	if code := app.ExitCodes().Resolve(err); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestApp_NonStrict(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Strict(false).Handle("build", func(ctx *Context) error {
		if _, ok := ctx.String("target"); ok {
			t.Error("target should be absent")
		}
		return nil
	})

	if err := app.RunWithArgs(context.Background(), []string{"build"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApp_UnknownFlagSuggestion(t *testing.T) {
	app, _, errOut := newTestApp(t)
	app.Handle("build", func(*Context) error { return nil })

	err := app.RunWithArgs(context.Background(), []string{"build", "--jbos", "2", "--target", "x"})
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || cliErr.Type != ErrorTypeUnknownFlag {
		t.Fatalf("expected unknown flag CLIError, got %v", err)
	}
	if !strings.Contains(errOut.String(), "Error: unknown flag '--jbos' for command 'tool.build'") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Did you mean '--jobs'?") {
		t.Errorf("missing suggestion in %q", errOut.String())
	}
	if code := app.ExitCodes().Resolve(err); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestApp_UnknownCommand(t *testing.T) {
	app, _, errOut := newTestApp(t)
	app.Handle("build", func(*Context) error { return nil })

	err := app.RunWithArgs(context.Background(), []string{"biuld"})
	if !IsErrorType(err, ErrorTypeUnknownCommand) {
		t.Fatalf("expected unknown_command, got %v", err)
	}
	if !strings.Contains(errOut.String(), "unknown command 'biuld' for 'tool'") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Did you mean 'build'?") {
		t.Errorf("missing suggestion in %q", errOut.String())
	}
}

func TestApp_UnknownCommandUsesInnermostLeftovers(t *testing.T) {
	root := NewCommand("tool").
		Command(NewCommand("remote").
			Command(NewCommand("add")).
			Command(NewCommand("remove"))).
		MustBuild()

	var out, errOut bytes.Buffer
	app := NewApp(root).WithIO(console.New().WithOut(&out).WithErr(&errOut).NoColor())
	app.Handle("remote.add", func(*Context) error { return nil })

	err := app.RunWithArgs(context.Background(), []string{"stray", "remote", "ad"})
	if !IsErrorType(err, ErrorTypeUnknownCommand) {
		t.Fatalf("expected unknown_command, got %v", err)
	}
	if !strings.Contains(errOut.String(), "unknown command 'ad' for 'tool remote'") {
		t.Errorf("the mistyped word should be reported, got %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Did you mean 'add'?") {
		t.Errorf("missing suggestion in %q", errOut.String())
	}

	// a stray root word alone is not a mistyped child of remote
	errOut.Reset()
	if err := app.RunWithArgs(context.Background(), []string{"stray", "remote"}); err != nil {
		t.Fatalf("expected help without error, got %v", err)
	}
	if errOut.Len() != 0 || !strings.Contains(out.String(), "Usage:") {
		t.Errorf("expected remote help, stdout %q stderr %q", out.String(), errOut.String())
	}
}

func TestApp_ShowHelpOnError(t *testing.T) {
	app, _, errOut := newTestApp(t)
	app.ErrorHandler().ShowHelpOnError(true)

	_ = app.RunWithArgs(context.Background(), []string{"build", "--nope"})
	if !strings.Contains(errOut.String(), "Usage:\n  tool build [FLAGS] [dir]") {
		t.Errorf("expected build help after the error, got %q", errOut.String())
	}
}

func TestApp_Help(t *testing.T) {
	app, out, _ := newTestApp(t)
	called := false
	app.Handle("build", func(*Context) error {
		called = true
		return nil
	})

	// target is required, but asking for help must still work
	err := app.RunWithArgs(context.Background(), []string{"build", "--help"})
	if !errors.Is(err, ErrHelpShown) {
		t.Fatalf("expected ErrHelpShown, got %v", err)
	}
	if called {
		t.Error("action must not run when help is shown")
	}
	if !strings.Contains(out.String(), "Compile the project.") || !strings.Contains(out.String(), "--jobs, -j number") {
		t.Errorf("unexpected help %q", out.String())
	}
	if code := app.ExitCodes().Resolve(err); code != 0 {
		t.Errorf("help exits with 0, got %d", code)
	}
}

func TestApp_Version(t *testing.T) {
	app, out, _ := newTestApp(t)

	err := app.RunWithArgs(context.Background(), []string{"-v"})
	if !errors.Is(err, ErrVersionShown) {
		t.Fatalf("expected ErrVersionShown, got %v", err)
	}
	if out.String() != "tool 1.2.3\n" {
		t.Errorf("unexpected version output %q", out.String())
	}

	// version from a subcommand, with its required flag missing
	out.Reset()
	err = app.RunWithArgs(context.Background(), []string{"build", "--version"})
	if !errors.Is(err, ErrVersionShown) || out.String() != "tool 1.2.3\n" {
		t.Errorf("unexpected result %v %q", err, out.String())
	}
}

func TestApp_NoActionShowsHelp(t *testing.T) {
	app, out, _ := newTestApp(t)
	if err := app.RunWithArgs(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Commands:") || !strings.Contains(out.String(), "build") {
		t.Errorf("expected root help, got %q", out.String())
	}
}

func TestApp_Middleware(t *testing.T) {
	app, _, _ := newTestApp(t)
	var order []string
	record := func(name string) middleware.Middleware {
		return func(next middleware.ActionFunc) middleware.ActionFunc {
			return func(ctx middleware.Context) error {
				order = append(order, name)
				return next(ctx)
			}
		}
	}

	app.Use(record("global")).
		UseFor("serve", record("serve")).
		Handle("serve", func(*Context) error {
			order = append(order, "action")
			return nil
		}).
		Handle("build", func(*Context) error {
			order = append(order, "build")
			return nil
		})

	if err := app.RunWithArgs(context.Background(), []string{"serve"}); err != nil {
		t.Fatal(err)
	}
	if err := app.RunWithArgs(context.Background(), []string{"build", "--target", "x"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"global", "serve", "action", "global", "build"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_TimeoutFromFlag(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.UseFor("serve", middleware.TimeoutFromFlag("timeout", time.Second)).
		Handle("serve", func(ctx *Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

	err := app.RunWithArgs(context.Background(), []string{"serve", "--timeout", "0.01"})
	var timeoutErr *middleware.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Command != "tool.serve" {
		t.Errorf("unexpected command %q", timeoutErr.Command)
	}
	if code := app.ExitCodes().Resolve(err); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestApp_TimeoutWithLateMetadataWrites(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Use(middleware.Timeout(20 * time.Millisecond))

	stop := make(chan struct{})
	finished := make(chan struct{})
	app.Handle("serve", func(ctx *Context) error {
		defer close(finished)
		<-ctx.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return nil
			default:
				ctx.Set("late", i)
			}
		}
	})
	app.After(func(ctx *Context) error {
		for range 1000 {
			_ = ctx.Get("late")
		}
		return nil
	})

	err := app.RunWithArgs(context.Background(), []string{"serve"})
	close(stop)
	<-finished

	var timeoutErr *middleware.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected a timeout, got %v", err)
	}
}

func TestApp_ParentContextCanceled(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app.Handle("serve", func(c *Context) error {
		return c.Err()
	})
	if err := app.RunWithArgs(ctx, []string{"serve"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestApp_ActionErrors(t *testing.T) {
	app, _, errOut := newTestApp(t)
	app.Handle("serve", func(*Context) error { return errors.New("boom") })

	err := app.RunWithArgs(context.Background(), []string{"serve"})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(errOut.String(), "[ERROR] boom") {
		t.Errorf("action errors are logged, got %q", errOut.String())
	}
	if code := app.ExitCodes().Resolve(err); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}

	app.Handle("serve", func(*Context) error {
		return &middleware.ValidationError{Message: "bad port"}
	})
	err = app.RunWithArgs(context.Background(), []string{"serve"})
	if code := app.ExitCodes().Resolve(err); code != 3 {
		t.Errorf("validation errors exit with 3, got %d", code)
	}
}

func TestApp_ContextExit(t *testing.T) {
	app, _, errOut := newTestApp(t)
	app.Handle("serve", func(ctx *Context) error {
		ctx.Exit(5)
		return nil
	})

	err := app.RunWithArgs(context.Background(), []string{"serve"})
	if code := app.ExitCodes().Resolve(err); code != 5 {
		t.Errorf("expected exit code 5, got %d (%v)", code, err)
	}
	if errOut.Len() != 0 {
		t.Errorf("a bare exit request prints nothing, got %q", errOut.String())
	}
}

func TestApp_Hooks(t *testing.T) {
	app, _, _ := newTestApp(t)
	var order []string
	app.Before(func(ctx *Context) error {
		order = append(order, "before")
		ctx.Set("start", "yes")
		return nil
	}).After(func(ctx *Context) error {
		order = append(order, "after:"+ctx.Get("start").(string))
		return errors.New("after failed")
	}).Handle("serve", func(*Context) error {
		order = append(order, "action")
		return nil
	})

	err := app.RunWithArgs(context.Background(), []string{"serve"})
	if err == nil || err.Error() != "after failed" {
		t.Errorf("after error should surface when the action succeeded, got %v", err)
	}
	if diff := cmp.Diff([]string{"before", "action", "after:yes"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_NilSchema(t *testing.T) {
	var errOut bytes.Buffer
	app := NewApp(nil).WithIO(console.New().WithErr(&errOut).NoColor())

	err := app.RunWithArgs(context.Background(), nil)
	if !IsErrorType(err, ErrorTypeInvalidSchema) {
		t.Fatalf("expected invalid_schema, got %v", err)
	}
	if code := app.ExitCodes().Resolve(err); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
