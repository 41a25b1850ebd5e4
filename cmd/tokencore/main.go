// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the tokencore CLI.
package main

import (
	"os"

	"github.com/stacklok/tokencore/cmd/tokencore/app"
	"github.com/stacklok/tokencore/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
