// @title           CreatorHub API
// @version         1.0
// @description     Подписки на создателей контента и доступ к премиум-материалам.
// @BasePath        /api/v1

package main

import (
	"creatorhub_backend/internal/app"

	_ "go.uber.org/automaxprocs"
)

func main() {
	app.Run()
}
