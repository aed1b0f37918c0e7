package main

import "github.com/dharmasatrya/flightwatch/internal/cli"

func main() {
	cli.Execute()
}
