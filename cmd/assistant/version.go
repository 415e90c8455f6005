package main

import (
	"context"
	"fmt"

	assistant "github.com/devitsoftware/docs-assistant"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(assistant.Version)
	return nil
}
