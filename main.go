package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/saadjs/platelog/cmd/platelog"
)

func main() {
	platelog.Execute()
}
