package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/chameleon/internal/dagger"
)

// CheckGoModTidy runs "go mod tidy" and fails if it changes go.mod or go.sum.
//
// +check
func (c *Chameleon) CheckGoModTidy(ctx context.Context) (string, error) {
	return c.check(ctx, "go.mod and go.sum are not tidy: run 'go mod tidy' and commit the changes",
		"cp go.mod go.mod.HEAD && cp go.sum go.sum.HEAD && go mod tidy && diff -u go.mod.HEAD go.mod && diff -u go.sum.HEAD go.sum",
	)
}

// CheckFormat fails when any Go file is not gofmt'd.
//
// +check
func (c *Chameleon) CheckFormat(ctx context.Context) (string, error) {
	return c.check(ctx, "unformatted Go files: run 'gofmt -w .'",
		`out=$(gofmt -l $(find . -name '*.go' -not -path './.dagger/*' -not -path './_examples/*')); test -z "$out" || { echo "$out"; exit 1; }`,
	)
}

// CheckVet runs "go vet" over every package.
//
// +check
func (c *Chameleon) CheckVet(ctx context.Context) (string, error) {
	return c.check(ctx, "go vet reported problems", "go vet ./...")
}

func (c *Chameleon) check(ctx context.Context, failure, script string) (string, error) {
	out, err := c.goContainer().
		WithExec([]string{"sh", "-c", script}).
		Stdout(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("%s\n\n%s%s", failure, e.Stdout, e.Stderr)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}

	return out, nil
}
