package main

import (
	"github.com/axellelanca/linkquota/cmd"
	_ "github.com/axellelanca/linkquota/cmd/cli"
	_ "github.com/axellelanca/linkquota/cmd/server"
)

func main() {
	cmd.Execute()
}
