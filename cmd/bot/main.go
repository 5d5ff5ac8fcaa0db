package main

import (
	"log"

	"github.com/aliskhannn/gre-quiz-bot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
