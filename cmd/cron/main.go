package main

import (
	"creatorhub_backend/internal/app"

	_ "go.uber.org/automaxprocs"
)

func main() {
	app.RunCron()
}
