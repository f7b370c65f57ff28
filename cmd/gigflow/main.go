package main

import (
	"os"

	"github.com/gigflow/marketplace/cmd/gigflow/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// @title                       GigFlow Marketplace API
// @version                     1.0
// @description                 Gig and bid marketplace with an atomic hire transaction and live hire notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
