package main

import "github.com/mchmarny/ordermix/pkg/cli"

func main() {
	cli.Execute()
}
