package main

import (
	"github.com/robotalks/spektrum.go/pkg/cli/sh"
	"github.com/robotalks/spektrum.go/pkg/daemon"

	_ "github.com/robotalks/spektrum.go/pkg/cli/cmds/satellite"
)

//go-build: CGO_ENABLED=0

func init() {
	daemon.SetupFlags()
}

func main() {
	sh.Main()
}
