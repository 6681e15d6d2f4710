package main

import (
	"github.com/Paintersrp/procwarden/internal/cli"
	"github.com/Paintersrp/procwarden/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
