// Package main is the entry point for the debtctl CLI.
//
// @title Debt Tracker Dashboard API
// @version 1.0
// @description Debtors, installments and payment summaries served by debtctl serve
//
// @host localhost:8090
// @BasePath /api
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/debt-tracker/cmd/debtctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
