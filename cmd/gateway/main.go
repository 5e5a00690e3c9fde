package main

import "github.com/DRSN-tech/commerce-backend/internal/app"

func main() {
	app.RunGateway()
}
