package main

import (
	"github.com/joho/godotenv"

	"tablet-checkout/cmd"
)

func main() {
	godotenv.Load()
	cmd.Execute()
}
