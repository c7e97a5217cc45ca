package main

import (
	"os"

	"github.com/dirauth/dirauth/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
